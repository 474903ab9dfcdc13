package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/wonny/mindjournal/internal/contracts"
	"github.com/wonny/mindjournal/internal/ingest"
	"github.com/wonny/mindjournal/pkg/httputil"
	"github.com/wonny/mindjournal/pkg/logger"
)

// RemoteSource reads journal entries from the journal backend over HTTP.
// It is read-only.
type RemoteSource struct {
	client  *httputil.Client
	baseURL string
	logger  *logger.Logger
}

// NewRemoteSource creates a source for the API rooted at baseURL
func NewRemoteSource(client *httputil.Client, baseURL string, log *logger.Logger) *RemoteSource {
	return &RemoteSource{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  log.Component("journal-remote"),
	}
}

// ListRecords fetches GET {base}/api/journal/entries?year=Y&user_id=U
func (s *RemoteSource) ListRecords(ctx context.Context, userID string, year int) ([]contracts.JournalRecord, error) {
	q := url.Values{}
	q.Set("year", strconv.Itoa(year))
	q.Set("user_id", userID)
	endpoint := s.baseURL + "/api/journal/entries?" + q.Encode()

	var body json.RawMessage
	if err := s.client.GetJSON(ctx, endpoint, &body); err != nil {
		return nil, fmt.Errorf("fetch journal entries: %w", err)
	}

	entries, err := ingest.DecodeListing(body)
	if err != nil {
		return nil, err
	}

	records := ingest.NormalizeAll(entries)
	for i := range records {
		if records[i].UserID == "" {
			records[i].UserID = userID
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id": userID,
		"year":    year,
		"count":   len(records),
	}).Debug("Fetched journal entries")

	return records, nil
}
