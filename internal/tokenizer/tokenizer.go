// Package tokenizer decodes generated token ids back to text using the
// vocabulary shipped in the model snapshot (tokenizer.json, Hugging Face
// layout). Only decoding is implemented; the service never encodes text.
package tokenizer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// wordBoundary is the SentencePiece word-boundary marker (U+2581).
const wordBoundary = "▁"

// Tokenizer maps token ids to vocabulary pieces.
type Tokenizer struct {
	pieces  map[int]string
	special map[int]bool
}

// tokenizerFile mirrors the parts of tokenizer.json we need.
type tokenizerFile struct {
	AddedTokens []struct {
		ID      int    `json:"id"`
		Content string `json:"content"`
		Special bool   `json:"special"`
	} `json:"added_tokens"`
	Model struct {
		Vocab json.RawMessage `json:"vocab"`
	} `json:"model"`
}

// Load reads the vocabulary from the tokenizer.json inside a model snapshot
// directory.
func Load(modelDir string) (*Tokenizer, error) {
	path := filepath.Join(modelDir, "tokenizer.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("tokenizer: failed to read %s: %w", path, err)
	}

	var file tokenizerFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("tokenizer: invalid tokenizer.json: %w", err)
	}

	pieces, err := parseVocab(file.Model.Vocab)
	if err != nil {
		return nil, err
	}

	t := newFromPieces(pieces)
	for _, tok := range file.AddedTokens {
		t.pieces[tok.ID] = tok.Content
		if tok.Special {
			t.special[tok.ID] = true
		}
	}

	return t, nil
}

// NewFromVocab builds a tokenizer from a piece->id map. Used by tests and
// by callers that already hold a vocabulary.
func NewFromVocab(vocab map[string]int) *Tokenizer {
	pieces := make(map[int]string, len(vocab))
	for piece, id := range vocab {
		pieces[id] = piece
	}
	return newFromPieces(pieces)
}

func newFromPieces(pieces map[int]string) *Tokenizer {
	t := &Tokenizer{
		pieces:  pieces,
		special: make(map[int]bool),
	}
	for id, piece := range pieces {
		if isSpecialPiece(piece) {
			t.special[id] = true
		}
	}
	return t
}

// parseVocab handles the two vocab layouts tokenizer.json uses: a piece->id
// object (BPE) or an array of [piece, score] pairs indexed by id (Unigram).
func parseVocab(raw json.RawMessage) (map[int]string, error) {
	if len(raw) == 0 {
		return nil, errors.New("tokenizer: missing vocab")
	}

	var asMap map[string]int
	if err := json.Unmarshal(raw, &asMap); err == nil {
		pieces := make(map[int]string, len(asMap))
		for piece, id := range asMap {
			pieces[id] = piece
		}
		return pieces, nil
	}

	var asPairs [][]json.RawMessage
	if err := json.Unmarshal(raw, &asPairs); err == nil {
		pieces := make(map[int]string, len(asPairs))
		for id, pair := range asPairs {
			if len(pair) == 0 {
				continue
			}
			var piece string
			if err := json.Unmarshal(pair[0], &piece); err != nil {
				return nil, fmt.Errorf("tokenizer: bad vocab entry %d: %w", id, err)
			}
			pieces[id] = piece
		}
		return pieces, nil
	}

	return nil, errors.New("tokenizer: unrecognized vocab layout")
}

// NormalizeIDs flattens the generated id payload. The runtime returns either
// a flat id sequence or a one-element batch of sequences; both normalize to
// the same flat sequence. Anything deeper is an error.
func NormalizeIDs(raw json.RawMessage) ([]int, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, errors.New("tokenizer: missing token ids")
	}

	var flat []int
	if err := json.Unmarshal(trimmed, &flat); err == nil {
		return flat, nil
	}

	var nested [][]int
	if err := json.Unmarshal(trimmed, &nested); err == nil {
		if len(nested) == 0 {
			return nil, nil
		}
		return nested[0], nil
	}

	return nil, errors.New("tokenizer: unrecognized token id shape")
}

// Decode turns token ids into a UTF-8 string. Ids missing from the
// vocabulary are dropped. An empty sequence decodes to the empty string.
func (t *Tokenizer) Decode(ids []int, skipSpecial bool) string {
	var sb strings.Builder
	for _, id := range ids {
		piece, ok := t.pieces[id]
		if !ok {
			continue
		}
		if skipSpecial && t.special[id] {
			continue
		}
		sb.WriteString(strings.ReplaceAll(piece, wordBoundary, " "))
	}

	return strings.TrimPrefix(sb.String(), " ")
}

// isSpecialPiece reports whether a vocabulary piece is a control token:
// <s>, </s>, <pad>, <unk> style markers or __eng__ style language tags.
func isSpecialPiece(piece string) bool {
	if strings.HasPrefix(piece, "<") && strings.HasSuffix(piece, ">") {
		return true
	}
	return strings.HasPrefix(piece, "__") && strings.HasSuffix(piece, "__")
}
