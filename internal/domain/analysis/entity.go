package analysis

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// MatchRate is the percentage resemblance to the rich lookalike. Vendors are
// inconsistent about quoting it, so both 92 and "92%" decode.
type MatchRate int

func (m *MatchRate) UnmarshalJSON(b []byte) error {
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		f, err := n.Float64()
		if err != nil {
			return fmt.Errorf("matchRate: %w", err)
		}
		*m = MatchRate(int(f + 0.5))
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("matchRate: unsupported value %s", string(b))
	}
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("matchRate: %q is not a number", s)
	}
	*m = MatchRate(int(f + 0.5))
	return nil
}

// Result is the physiognomy reading produced once per upload.
type Result struct {
	RichLookalike    string    `json:"richLookalike"`
	MatchRate        MatchRate `json:"matchRate"`
	AnimalType       string    `json:"animalType"`
	PotentialWealth  string    `json:"potentialWealth"`
	Summary          string    `json:"summary"`
	DetailedAnalysis string    `json:"detailedAnalysis"`
}

// Validate rejects readings with missing text fields; the gateway treats that
// the same as an unparsable payload.
func (r Result) Validate() error {
	missing := make([]string, 0, 6)
	for name, v := range map[string]string{
		"richLookalike":    r.RichLookalike,
		"animalType":       r.AnimalType,
		"potentialWealth":  r.PotentialWealth,
		"summary":          r.Summary,
		"detailedAnalysis": r.DetailedAnalysis,
	} {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("%w: missing %s", ErrUnparsable, strings.Join(missing, ", "))
	}
	return nil
}

// Clamp forces MatchRate into [lo, hi].
func (r Result) Clamp(lo, hi int) Result {
	if lo > hi {
		lo, hi = hi, lo
	}
	if int(r.MatchRate) < lo {
		r.MatchRate = MatchRate(lo)
	}
	if int(r.MatchRate) > hi {
		r.MatchRate = MatchRate(hi)
	}
	return r
}

// LockedMask replaces every paid field in a teaser.
const LockedMask = "🔒 결제 후 공개됩니다"

// Teaser keeps the lookalike and match rate and masks the paid fields.
func (r Result) Teaser() Result {
	return Result{
		RichLookalike:    r.RichLookalike,
		MatchRate:        r.MatchRate,
		AnimalType:       LockedMask,
		PotentialWealth:  LockedMask,
		Summary:          LockedMask,
		DetailedAnalysis: LockedMask,
	}
}

// Fallback is served when both models fail so the flow never dead-ends.
func Fallback(matchRate int) Result {
	return Result{
		RichLookalike:   "워런 버핏",
		MatchRate:       MatchRate(matchRate),
		AnimalType:      "두꺼비",
		PotentialWealth: "30억 ~ 300억",
		Summary:         "돈이 스스로 찾아오는 느긋한 부자의 상이다.",
		DetailedAnalysis: "이마가 넓고 밝아 초년의 기반이 단단하고, 눈매가 차분해 기회를 서두르지 않고 기다릴 줄 안다. " +
			"콧방울이 두툼해 한번 들어온 재물이 쉽게 새지 않으며, 입꼬리가 올라가 있어 사람을 통해 돈이 들어오는 구조다. " +
			"하관이 넉넉해 말년으로 갈수록 자산이 불어나는 형국이니, 무리한 투자보다 꾸준한 복리에 맡기면 큰 재물을 이룬다. " +
			"다만 귀가 얇아 남의 말에 흔들릴 때 돈이 새니, 큰 결정은 하룻밤 묵혀 두는 습관을 들여라.",
	}
}
