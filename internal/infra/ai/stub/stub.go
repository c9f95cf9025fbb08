package stub

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/bryanwahyu/animal-aid/internal/domain/ai"
)

// Client is a deterministic, no-network analyzer for local runs and CI.
// With Fail set it always returns a failure, which is handy to exercise the
// provider-outage path end to end.
type Client struct {
	Fail    bool
	Message string
}

func NewClient(fail bool) *Client { return &Client{Fail: fail, Message: "stub analysis provider unavailable"} }

func (c *Client) Analyze(_ context.Context, image []byte) ai.Result {
	if c.Fail {
		return ai.Failure(c.Message)
	}
	sum := sha256.Sum256(image)
	severities := []string{"Low", "Medium", "High"}

	out := map[string]any{
		"animal_type":         "Dog",
		"breed_guess":         "Mixed Breed",
		"injury":              "stub assessment " + hex.EncodeToString(sum[:4]),
		"severity":            severities[int(sum[0])%len(severities)],
		"environment_factors": "None observed",
		"suggestions":         "Keep the animal calm and consult a veterinarian.",
	}
	b, err := json.Marshal(out)
	if err != nil {
		return ai.Failure(err.Error())
	}
	return ai.Success(string(b))
}
