package service

import (
	"sort"

	"github.com/okian/reto/internal/domain/dailycap"
	"github.com/okian/reto/internal/domain/model"
	"github.com/okian/reto/internal/domain/scoring"
	"github.com/okian/reto/internal/domain/types"
)

func (sc seasonContext) standings() []scoring.Standing {
	return scoring.Compute(sc.events, sc.season.InitialPoints, sc.members)
}

func (sc seasonContext) scoreboard() []types.Entry {
	return types.FromStandings(sc.standings())
}

// day reports every member's points on date against the season's cap.
func (sc seasonContext) day(date string) types.Day {
	out := types.Day{
		Date:         date,
		Limit:        dailycap.Limit(sc.season),
		Participants: make([]types.DayStatus, 0, len(sc.members)),
	}
	for _, p := range sc.members {
		remaining := dailycap.Remaining(sc.season, sc.events, p.ID, date)
		out.Participants = append(out.Participants, types.DayStatus{
			ParticipantID: p.ID,
			Name:          p.Name,
			Points:        dailycap.PointsForDay(sc.events, p.ID, date),
			Remaining:     remaining,
			CanAdd:        remaining > 0,
		})
	}
	return out
}

// history lists the season's events by date, then participant id.
// An empty participantID means everyone.
func (sc seasonContext) history(participantID string) []types.HistoryEntry {
	list := make([]model.Event, 0, len(sc.events))
	for _, e := range sc.events {
		if participantID == "" || e.ParticipantID == participantID {
			list = append(list, e)
		}
	}
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Date == list[j].Date {
			return list[i].ParticipantID < list[j].ParticipantID
		}
		return list[i].Date < list[j].Date
	})

	out := make([]types.HistoryEntry, len(list))
	for i, e := range list {
		out[i] = types.HistoryEntry{
			ID:            e.ID,
			ParticipantID: e.ParticipantID,
			Name:          model.NameOf(sc.all, e.ParticipantID),
			Date:          e.Date,
			Points:        e.Points,
		}
	}
	return out
}

func (sc seasonContext) event(id string) (model.Event, bool) {
	for _, e := range sc.events {
		if e.ID == id {
			return e, true
		}
	}
	return model.Event{}, false
}
