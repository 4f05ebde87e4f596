package mina

import (
	"context"
	"fmt"
	"time"

	"github.com/tidwall/gjson"

	"github.com/hammamikhairi/minarelay/internal/domain"
)

// LatestQuery fetches the latest-query snapshot from the conversation log.
// The envelope's "data" field is itself JSON-encoded text holding a
// newest-first "records" array; the first record carries the position
// marker ("time") and the query. An empty record list yields the zero
// snapshot.
func (s *Service) LatestQuery(ctx context.Context) (domain.QuerySnapshot, error) {
	u := fmt.Sprintf("%s%s?source=dialogu&hardware=%s&timestamp=%d&limit=2",
		s.profileBase, conversationPath, s.hardware, time.Now().UnixMilli())

	body, err := s.get(ctx, u)
	if err != nil {
		return domain.QuerySnapshot{}, fmt.Errorf("mina: latest query: %w", err)
	}

	records := gjson.Get(gjson.Get(body, "data").String(), "records").Array()
	if len(records) == 0 {
		return domain.QuerySnapshot{}, nil
	}

	first := records[0]
	snap := domain.QuerySnapshot{
		Timestamp:     first.Get("time").Int(),
		Query:         first.Get("query").String(),
		AnswerPreview: first.Get("answers.0.tts.text").String(),
	}
	s.log.Debug("mina: latest query t=%d %q", snap.Timestamp, snap.Query)
	return snap, nil
}
