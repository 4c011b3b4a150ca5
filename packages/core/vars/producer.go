package vars

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/flowspec/packages/core/model"
)

// Built-in base instants for Date/Datetime variables.
const (
	BuiltinToday    = "$TODAY$"
	BuiltinNow      = "$NOW$"
	BuiltinTodayUTC = "$TODAY_UTC$"
	BuiltinNowUTC   = "$NOW_UTC$"
)

const (
	defaultRangeMax  = 100
	defaultStringLen = 12
	stringCharset    = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Producer turns variable declarations into concrete string values.
// Generation is deterministic for a (session seed, name, constraints,
// iteration) tuple so a failing iteration reproduces within one run.
type Producer struct {
	seed  uint64
	clock Clock
}

// NewProducer builds a producer for one session run.
func NewProducer(seed uint64, clock Clock) *Producer {
	if clock == nil {
		clock = SystemClock()
	}
	return &Producer{seed: seed, clock: clock}
}

// Produce resolves one variable for the given iteration index: the literal
// value, the valueSet entry selected by iteration mod length, or a value
// generated under the declared constraints.
func (p *Producer) Produce(v *model.Variable, iteration int) (string, error) {
	switch {
	case len(v.ValueSet) > 0:
		raw := v.ValueSet[iteration%len(v.ValueSet)]
		return p.finish(v, stringify(raw))
	case v.Value != nil:
		return p.finish(v, stringify(v.Value))
	default:
		return p.generate(v, iteration)
	}
}

// finish applies date math and the constraint checks to an already-chosen
// raw value.
func (p *Producer) finish(v *model.Variable, raw string) (string, error) {
	if v.Type == model.TypeDate || v.Type == model.TypeDatetime {
		return p.resolveDate(v, raw)
	}
	if err := checkConstraints(v, raw); err != nil {
		return "", err
	}
	return raw, nil
}

func (p *Producer) generate(v *model.Variable, iteration int) (string, error) {
	if v.Type == model.TypeDate || v.Type == model.TypeDatetime {
		// No explicit base: generated dates start from now.
		base := BuiltinNow
		if v.Type == model.TypeDate {
			base = BuiltinToday
		}
		return p.resolveDate(v, base)
	}

	rng := rand.New(rand.NewSource(p.valueSeed(v, iteration)))

	var raw string
	switch {
	case len(v.OneOf) > 0:
		raw = v.OneOf[rng.Intn(len(v.OneOf))]
	case v.Type == model.TypeInt:
		min, max := int64(0), int64(defaultRangeMax)
		if v.Range != nil {
			min, max = v.Range.Min, v.Range.Max
		}
		raw = strconv.FormatInt(min+rng.Int63n(max-min+1), 10)
	default:
		raw = randomString(rng, v.MinLength, v.MaxLength)
	}

	if err := checkConstraints(v, raw); err != nil {
		return "", err
	}
	return raw, nil
}

// valueSeed folds the session seed, variable name, constraint fingerprint
// and iteration index into one 63-bit seed.
func (p *Producer) valueSeed(v *model.Variable, iteration int) int64 {
	h := fnv.New64a()
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], p.seed)
	h.Write(buf[:])
	h.Write([]byte(v.Name))
	h.Write([]byte(v.ConstraintFingerprint()))
	binary.BigEndian.PutUint64(buf[:], uint64(iteration))
	h.Write(buf[:])
	return int64(h.Sum64() & (1<<63 - 1))
}

func randomString(rng *rand.Rand, minLen, maxLen int) string {
	if minLen <= 0 {
		minLen = defaultStringLen
	}
	if maxLen < minLen {
		maxLen = minLen
	}
	n := minLen
	if maxLen > minLen {
		n += rng.Intn(maxLen - minLen + 1)
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = stringCharset[rng.Intn(len(stringCharset))]
	}
	return string(b)
}

// checkConstraints validates a chosen value against pattern/anyOf/noneOf.
// These act as acceptance checks, never as generators.
func checkConstraints(v *model.Variable, raw string) error {
	if v.Pattern != "" {
		// Pattern compiled already at definition load.
		re := regexp.MustCompile(v.Pattern)
		if !re.MatchString(raw) {
			return &ConstraintError{Name: v.Name, Reason: fmt.Sprintf("value %q does not match pattern %q", raw, v.Pattern)}
		}
	}
	for _, banned := range v.NoneOf {
		if raw == banned {
			return &ConstraintError{Name: v.Name, Reason: fmt.Sprintf("value %q is excluded by noneOf", raw)}
		}
	}
	if len(v.AnyOf) > 0 {
		ok := false
		for _, allowed := range v.AnyOf {
			if raw == allowed {
				ok = true
				break
			}
		}
		if !ok {
			return &ConstraintError{Name: v.Name, Reason: fmt.Sprintf("value %q is not in anyOf", raw)}
		}
	}
	return nil
}

// resolveDate turns a base value (literal or built-in) into the final
// formatted string: base instant, then modifier, then format pattern.
func (p *Producer) resolveDate(v *model.Variable, base string) (string, error) {
	t, err := p.baseInstant(base)
	if err != nil {
		return "", err
	}
	t = applyModifier(t, v.Modifier)

	pattern := v.Format
	if pattern == "" {
		if v.Type == model.TypeDate {
			pattern = "%Y-%m-%d"
		} else {
			return t.Format(time.RFC3339), nil
		}
	}
	return FormatTime(t, pattern)
}

func (p *Producer) baseInstant(base string) (time.Time, error) {
	switch base {
	case BuiltinToday:
		now := p.clock.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()), nil
	case BuiltinNow:
		return p.clock.Now(), nil
	case BuiltinTodayUTC:
		now := p.clock.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	case BuiltinNowUTC:
		return p.clock.Now().UTC(), nil
	}

	for _, layout := range []string{
		"2006-01-02",
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
	} {
		if t, err := time.Parse(layout, base); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &FormatError{Pattern: base, Reason: "unrecognized date value"}
}

func applyModifier(t time.Time, m *model.Modifier) time.Time {
	if m == nil {
		return t
	}
	n := m.Value
	if strings.EqualFold(m.Operation, "subtract") {
		n = -n
	}
	switch strings.ToLower(m.Unit) {
	case "days":
		return t.AddDate(0, 0, n)
	case "weeks":
		return t.AddDate(0, 0, 7*n)
	case "months":
		return t.AddDate(0, n, 0)
	}
	return t
}

// stringify renders a decoded YAML scalar the way it will be injected into
// a request template.
func stringify(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", val)
	}
}
