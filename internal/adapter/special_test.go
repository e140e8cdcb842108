package adapter

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ngmonitor/courtharvest/internal/calendar"
	"github.com/ngmonitor/courtharvest/internal/harvest"
)

var specialCourt = harvest.Court{
	Identifier: "special",
	Category:   harvest.CategorySpecial,
	NameLocal:  "विशेष अदालत",
}

const specialBenchForm = `<html><body>
<form>
  <input type="hidden" name="yo" value="7">
  <select name="bench_type">
    <option value="">-- छान्नु होस् --</option>
    <option value="1">इजलास नं १</option>
    <option value="2">इजलास नं २</option>
  </select>
</form>
</body></html>`

func specialBenchPage(n string) string {
	return fmt.Sprintf(`<html><body>
<font size="3">विशेष अदालत इजलास नं %s</font>
<table width="100%%" border="0">
  <tr><td><font size="2">अध्यक्ष माननीय न्यायाधीश श्री सुदर्शनदेव भट्ट<br>सदस्य माननीय न्यायाधीश श्री हेमन्त रावल</font></td></tr>
</table>
<table width="100%%" border="1">
  <tr>
    <td>क्र</td><td>किसिम</td><td>दर्ता</td><td>मुद्दा</td><td>मुद्दा नं</td><td>वादी</td>
    <td>प्रतिवादी</td><td>साविक</td><td>कैफियत</td><td>स्थिती</td><td>किसिम</td>
  </tr>
  <tr>
    <td>१</td>
    <td>फाँट क</td>
    <td>२०८०/०९/१५</td>
    <td>भ्रष्टाचार</td>
    <td>0%s80-CR-0048</td>
    <td>नेपाल सरकार</td>
    <td>जुनो कुमार</td>
    <td>077-CR-0012( साविक)</td>
    <td></td>
    <td>चालु</td>
    <td>थुनछेक आदेश (धरौटी)</td>
  </tr>
</table>
<table width="100%%" border="0">
  <tr><td>इजलास अधिकृत: श्री अधिकारी</td></tr>
</table>
</body></html>`, n, n)
}

func TestSpecialHarvestUnitFanOut(t *testing.T) {
	t.Parallel()

	fetcher := fetchFunc{
		post: func(url string, form, _ map[string]string) ([]byte, error) {
			require.Equal(t, "https://portal.test/special/syspublic.php?d=reports&f=daily_public", url)
			switch form["mode"] {
			case "showbench":
				require.Equal(t, "2081", form["syy"])
				require.Equal(t, "09", form["smm"])
				require.Equal(t, "28", form["sdd"])
				return []byte(specialBenchForm), nil
			case "show":
				require.Equal(t, "7", form["yo"], "hidden yo token must be echoed back")
				return []byte(specialBenchPage(form["bench_type"])), nil
			}
			return nil, errors.New("unexpected mode " + form["mode"])
		},
	}
	adapter := NewSpecial(fetcher, zap.NewNop(), testClock, "https://portal.test")

	result, err := adapter.HarvestUnit(context.Background(), specialCourt, calendar.Date{Year: 2081, Month: 9, Day: 28})
	require.NoError(t, err)
	require.Equal(t, "2 benches", result.Summary)
	require.Len(t, result.Sightings, 2)

	byCase := map[string]harvest.Sighting{}
	for _, s := range result.Sightings {
		byCase[s.Case.CaseNumber] = s
	}
	require.Contains(t, byCase, "0180-CR-0048")
	require.Contains(t, byCase, "0280-CR-0048")

	s := byCase["0180-CR-0048"]
	require.Equal(t, "फाँट क", s.Case.Category)
	require.Equal(t, "भ्रष्टाचार", s.Case.CaseType)
	require.Equal(t, "2080-09-15", s.Case.RegistrationDateBS)
	require.Equal(t, "नेपाल सरकार", s.Case.Plaintiff)
	require.Equal(t, "077-CR-0012 (साविक)", s.Case.OriginalCaseNumber)

	require.Equal(t, "1", s.Hearing.BenchType)
	require.Equal(t, "चालु", s.Hearing.CaseStatus)
	require.Equal(t, "थुनछेक आदेश (धरौटी)", s.Hearing.DecisionType)
	require.Equal(t,
		"अध्यक्ष माननीय न्यायाधीश श्री सुदर्शनदेव भट्ट\nसदस्य माननीय न्यायाधीश श्री हेमन्त रावल",
		s.Hearing.JudgeNames)
	require.Equal(t, "इजलास नं १", s.Hearing.Attributes["bench_label"])
	require.Contains(t, s.Hearing.Attributes["court_number"], "इजलास")
	require.Contains(t, s.Hearing.Attributes["footer"], "इजलास अधिकृत")
}

func TestSpecialNoBenchTypes(t *testing.T) {
	t.Parallel()

	fetcher := fetchFunc{
		post: func(string, map[string]string, map[string]string) ([]byte, error) {
			return []byte(`<html><body><p>no benches today</p></body></html>`), nil
		},
	}
	adapter := NewSpecial(fetcher, zap.NewNop(), testClock, "https://portal.test")

	result, err := adapter.HarvestUnit(context.Background(), specialCourt, calendar.Date{Year: 2081, Month: 9, Day: 27})
	require.NoError(t, err)
	require.Empty(t, result.Sightings)
	require.Equal(t, "0 benches", result.Summary)
}

func TestSpecialFailedBenchFailsUnit(t *testing.T) {
	t.Parallel()

	fetcher := fetchFunc{
		post: func(_ string, form, _ map[string]string) ([]byte, error) {
			if form["mode"] == "showbench" {
				return []byte(specialBenchForm), nil
			}
			if form["bench_type"] == "2" {
				return nil, &harvest.TransientError{StatusCode: 504, Err: errors.New("gateway timeout")}
			}
			return []byte(specialBenchPage("1")), nil
		},
	}
	adapter := NewSpecial(fetcher, zap.NewNop(), testClock, "https://portal.test")

	_, err := adapter.HarvestUnit(context.Background(), specialCourt, calendar.Date{Year: 2081, Month: 9, Day: 28})
	var transient *harvest.TransientError
	require.ErrorAs(t, err, &transient)
}

func TestSpecialWAFBlock(t *testing.T) {
	t.Parallel()

	fetcher := fetchFunc{
		post: func(string, map[string]string, map[string]string) ([]byte, error) {
			return []byte(wafBanner), nil
		},
	}
	adapter := NewSpecial(fetcher, zap.NewNop(), testClock, "https://portal.test")

	_, err := adapter.HarvestUnit(context.Background(), specialCourt, calendar.Date{Year: 2081, Month: 9, Day: 28})
	var blocked *harvest.BlockedError
	require.ErrorAs(t, err, &blocked)
}
