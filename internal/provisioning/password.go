package provisioning

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// credentialAlphabet has 76 symbols; 12 uniform draws give just over 75 bits
// of entropy for the one-time password.
const credentialAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789!@#$%^&*()-_=+"

const credentialLength = 12

// GenerateCredential returns a one-time password for a freshly provisioned
// identity. It is delivered once through the welcome notification and never
// persisted.
func GenerateCredential() (string, error) {
	alphabetSize := big.NewInt(int64(len(credentialAlphabet)))
	out := make([]byte, credentialLength)

	for i := range out {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", fmt.Errorf("failed to generate credential: %w", err)
		}
		out[i] = credentialAlphabet[n.Int64()]
	}
	return string(out), nil
}
