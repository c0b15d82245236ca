package services

import (
	"crypto/rand"
	"fmt"
	"io"
)

// joinCodeAlphabet omits 0/O and 1/I so codes survive being read aloud.
const joinCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	defaultJoinCodeLength      = 6
	minJoinCodeLength          = 6
	maxJoinCodeLength          = 8
	defaultJoinCodeMaxAttempts = 10
)

type JoinCodeGenerator struct {
	length      int
	maxAttempts int
	random      io.Reader
}

// NewJoinCodeGenerator clamps length to 6..8 characters; zero or a negative
// value selects the default.
func NewJoinCodeGenerator(length, maxAttempts int) *JoinCodeGenerator {
	switch {
	case length <= 0:
		length = defaultJoinCodeLength
	case length < minJoinCodeLength:
		length = minJoinCodeLength
	case length > maxJoinCodeLength:
		length = maxJoinCodeLength
	}
	if maxAttempts <= 0 {
		maxAttempts = defaultJoinCodeMaxAttempts
	}
	return &JoinCodeGenerator{length: length, maxAttempts: maxAttempts, random: rand.Reader}
}

func (g *JoinCodeGenerator) MaxAttempts() int {
	return g.maxAttempts
}

// Generate returns a random code drawn uniformly from the alphabet.
func (g *JoinCodeGenerator) Generate() (string, error) {
	const limit = 256 - 256%len(joinCodeAlphabet)

	code := make([]byte, 0, g.length)
	buf := make([]byte, g.length*2)
	for len(code) < g.length {
		if _, err := io.ReadFull(g.random, buf); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			code = append(code, joinCodeAlphabet[int(b)%len(joinCodeAlphabet)])
			if len(code) == g.length {
				break
			}
		}
	}
	return string(code), nil
}

func IsValidJoinCode(code string) bool {
	if code == "" {
		return false
	}
	for i := 0; i < len(code); i++ {
		if !containsByte(joinCodeAlphabet, code[i]) {
			return false
		}
	}
	return true
}

func containsByte(s string, b byte) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return true
		}
	}
	return false
}
