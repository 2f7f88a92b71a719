package simulate

import (
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Plan draws cfg.Requests writes over participants. Grants land on one of the
// last cfg.Days days; boosts are dated today by the service.
func Plan(cfg *Config, participants []string, today time.Time) []Request {
	if len(participants) == 0 || cfg.Requests <= 0 {
		return nil
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, seed>>1|1))
	days := max(cfg.Days, 1)

	out := make([]Request, cfg.Requests)
	for i := range out {
		r := Request{
			Key:           uuid.NewString(),
			ParticipantID: participants[rng.IntN(len(participants))],
		}
		if rng.Float64() < cfg.BoostRatio {
			r.Boost = true
			r.Points = 1 + rng.IntN(maxBoostPoints)
		} else {
			r.Points = 1
			r.Date = today.AddDate(0, 0, -rng.IntN(days)).Format("2006-01-02")
		}
		out[i] = r
	}
	return out
}

// seasonName names the simulated season after its start time.
func seasonName(t time.Time) string {
	return "Simulación " + t.Format("2006-01-02 15:04:05") + " #" + strconv.Itoa(t.Nanosecond()%1000)
}
