package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/glcc/command-center/internal/core/domain"
)

const domesticTimeout = 10 * time.Second

// trackQuery is the GraphQL query the delivery-tracker service exposes for a
// single shipment.
const trackQuery = `
query Track($carrierId: ID!, $trackingNumber: String!) {
    track(carrierId: $carrierId, trackingNumber: $trackingNumber) {
        state { id text }
        progresses {
            time
            location { name }
            status { id text }
            description
        }
        carrier { id name }
    }
}`

// DomesticClient queries the domestic delivery-tracker service, a GraphQL
// endpoint wrapping the kr.* carriers.
type DomesticClient struct {
	endpoint string
	client   *http.Client
}

func NewDomesticClient(endpoint string, client *http.Client) *DomesticClient {
	if client == nil {
		client = &http.Client{Timeout: domesticTimeout}
	}
	return &DomesticClient{endpoint: endpoint, client: client}
}

func (c *DomesticClient) Name() string { return "domestic" }

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphqlName struct {
	Name string `json:"name"`
}

type graphqlStatus struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type graphqlProgress struct {
	Time        string        `json:"time"`
	Location    *graphqlName  `json:"location"`
	Status      graphqlStatus `json:"status"`
	Description string        `json:"description"`
}

type graphqlTrack struct {
	State      graphqlStatus     `json:"state"`
	Progresses []graphqlProgress `json:"progresses"`
}

type graphqlResponse struct {
	Data struct {
		Track *graphqlTrack `json:"track"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Fetch runs the track query and maps the reply into the common result shape.
// Transport failures become ErrBackendUnavailable; GraphQL errors mentioning
// an unknown tracking number become ErrTrackingNotFound.
func (c *DomesticClient) Fetch(ctx context.Context, carrier, trackingNumber string) (*domain.TrackingResult, error) {
	body, err := json.Marshal(graphqlRequest{
		Query: trackQuery,
		Variables: map[string]any{
			"carrierId":      carrier,
			"trackingNumber": trackingNumber,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: encode query: %v", domain.ErrBackendError, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", domain.ErrBackendError, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: tracker returned %s", domain.ErrBackendUnavailable, resp.Status)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: tracker returned %s", domain.ErrBackendError, resp.Status)
	}

	var gr graphqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrBackendError, err)
	}

	if len(gr.Errors) > 0 {
		msg := gr.Errors[0].Message
		if isNotFoundMessage(msg) {
			return nil, fmt.Errorf("%w: %s", domain.ErrTrackingNotFound, msg)
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrBackendError, msg)
	}
	if gr.Data.Track == nil {
		return nil, fmt.Errorf("%w: empty track payload", domain.ErrTrackingNotFound)
	}

	track := gr.Data.Track
	result := &domain.TrackingResult{
		Carrier:           carrier,
		TrackingNumber:    trackingNumber,
		StatusCode:        track.State.ID,
		StatusDescription: track.State.Text,
		FetchedAt:         time.Now().UTC(),
	}
	for _, p := range track.Progresses {
		event := domain.TrackingEvent{Description: p.Description}
		if p.Description == "" {
			event.Description = p.Status.Text
		}
		if p.Location != nil {
			event.Location = p.Location.Name
		}
		if ts, err := time.Parse(time.RFC3339, p.Time); err == nil {
			event.Timestamp = ts
		}
		result.Events = append(result.Events, event)
	}
	return result, nil
}

// isNotFoundMessage sniffs the tracker's error text; the service has no
// structured error codes.
func isNotFoundMessage(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "not found") ||
		strings.Contains(lower, "no tracking") ||
		strings.Contains(lower, "조회된 결과가 없습니다")
}
