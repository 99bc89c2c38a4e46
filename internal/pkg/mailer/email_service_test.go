package mailer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerificationLink(t *testing.T) {
	assert.Equal(t,
		"https://app.example.com/verify-email?token=a%2Bb%2Fc",
		VerificationLink("https://app.example.com", "a+b/c"),
	)
}
