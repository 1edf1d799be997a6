package repository

import (
	"time"

	"github.com/okian/castassist/internal/domain/model"
)

// eventDocument is the persisted shape of one token's snapshot. The payload
// travels as its serialized JSON text; readers outside this service consume
// it verbatim.
type eventDocument struct {
	Token     string    `bson:"_id"`
	MatchID   int64     `bson:"match_id"`
	Timestamp int64     `bson:"timestamp"`
	GameTime  int64     `bson:"game_time"`
	ClockTime int64     `bson:"clock_time"`
	MatchData string    `bson:"match_data"`
	ExpireAt  time.Time `bson:"expireAt"`
}

// liveMatchesDocument is the persisted directory singleton.
type liveMatchesDocument struct {
	ID        string            `bson:"_id"`
	Matches   []model.LiveMatch `bson:"matches"`
	UpdatedAt time.Time         `bson:"updated_at"`
}

func toDocument(ev model.Event, expireAt time.Time) (eventDocument, error) {
	data, err := ev.Payload.Encode()
	if err != nil {
		return eventDocument{}, err
	}
	return eventDocument{
		Token:     ev.Token,
		MatchID:   ev.MatchID,
		Timestamp: ev.Timestamp,
		GameTime:  ev.GameTime,
		ClockTime: ev.ClockTime,
		MatchData: data,
		ExpireAt:  expireAt,
	}, nil
}

func toEvent(doc eventDocument) (model.Event, error) {
	payload, err := model.ParsePayload([]byte(doc.MatchData))
	if err != nil {
		return model.Event{}, err
	}
	return model.Event{
		Token:     doc.Token,
		MatchID:   doc.MatchID,
		Timestamp: doc.Timestamp,
		GameTime:  doc.GameTime,
		ClockTime: doc.ClockTime,
		Payload:   payload,
	}, nil
}
