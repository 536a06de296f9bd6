package game

import "math/rand/v2"

const (
	RoomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	RoomCodeLength   = 6
)

type RandomCodeGenerator struct{}

func NewRandomCodeGenerator() RandomCodeGenerator {
	return RandomCodeGenerator{}
}

// Generate draws each character uniformly from RoomCodeAlphabet.
func (RandomCodeGenerator) Generate() string {
	code := make([]byte, RoomCodeLength)
	for i := range code {
		code[i] = RoomCodeAlphabet[rand.IntN(len(RoomCodeAlphabet))]
	}
	return string(code)
}
