package attendance

import (
	"context"
	"encoding/hex"
	"errors"

	"github.com/txn2/realty-crm/pkg/actor"
)

const (
	stubFingerprintBytes = 32

	// DefaultConfidenceScore is reported by StubVerifier when none is set.
	DefaultConfidenceScore = 95
)

// StubVerifier does no biometric matching. It fingerprints the first 32
// bytes of the photo and always reports success.
type StubVerifier struct {
	ConfidenceScore uint64
}

// Verify implements Verifier.
func (v StubVerifier) Verify(_ context.Context, photo []byte) (actor.FaceVerificationResult, error) {
	if len(photo) == 0 {
		return actor.FaceVerificationResult{}, errors.New("empty photo")
	}
	score := v.ConfidenceScore
	if score == 0 {
		score = DefaultConfidenceScore
	}
	return actor.FaceVerificationResult{
		IsSuccess:       true,
		ConfidenceScore: score,
		Message:         "Face captured and verified successfully",
		FaceDataHash:    hex.EncodeToString(photo[:min(len(photo), stubFingerprintBytes)]),
	}, nil
}

// Verify interface compliance.
var _ Verifier = StubVerifier{}
