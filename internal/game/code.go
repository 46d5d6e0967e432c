package game

import (
	"fmt"
	"math/rand"
)

// codeAlphabet leaves out 0/O/1/I so codes survive being shouted across a
// living room.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func randomCode(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
	}
	return string(b)
}

func randomPIN() string {
	return fmt.Sprintf("%04d", rand.Intn(10000))
}
