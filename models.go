// Copyright 2024-2026 the chutes-go authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package chutes

import (
	"regexp"
	"strings"
)

// ModelKind is a coarse classification of what a model does, inferred
// from its ID. Chute model IDs carry no explicit type field, so callers
// routing requests to the right endpoint rely on naming conventions.
type ModelKind int

const (
	// KindChat is a text-generation / chat model. It is also the
	// fallback when nothing else matches, since most chutes serve LLMs.
	KindChat = ModelKind(0)
	// KindImage is an image-generation model.
	KindImage = ModelKind(1)
	// KindEmbedding is a text-embedding model.
	KindEmbedding = ModelKind(2)
)

func (k ModelKind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindEmbedding:
		return "embedding"
	case KindChat:
		return "chat"
	default:
		return "unknown"
	}
}

type kindPattern struct {
	kind     ModelKind
	keywords []string
	pattern  *regexp.Regexp
}

// kindPatterns is checked in order; the first match wins. Keywords match
// as case-insensitive substrings; the regexp, when present, must match
// too.
//
//nolint:gochecknoglobals
var kindPatterns = []kindPattern{
	{
		kind:     KindImage,
		keywords: []string{"flux", "sdxl", "stable-diffusion", "diffusion", "pixart", "kandinsky", "imagegen"},
	},
	{
		kind:    KindImage,
		pattern: regexp.MustCompile(`(?i)(^|[-/._])(sd|img|image)([-/._]|$)`),
	},
	{
		kind:     KindEmbedding,
		keywords: []string{"embed", "bge-", "gte-", "e5-"},
	},
	{
		kind:    KindEmbedding,
		pattern: regexp.MustCompile(`(?i)sentence[-_]?transformers?`),
	},
}

// ClassifyModel infers the kind of the model with the given ID. Unknown
// IDs classify as KindChat.
func ClassifyModel(modelID string) ModelKind {
	id := strings.ToLower(modelID)
	for _, candidate := range kindPatterns {
		if candidate.matches(id) {
			return candidate.kind
		}
	}
	return KindChat
}

func (p kindPattern) matches(id string) bool {
	for _, keyword := range p.keywords {
		if strings.Contains(id, keyword) {
			return true
		}
	}
	if p.pattern != nil {
		return p.pattern.MatchString(id)
	}
	return false
}
