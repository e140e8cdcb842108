package adapter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ngmonitor/courtharvest/internal/calendar"
	"github.com/ngmonitor/courtharvest/internal/harvest"
)

var kathmandu = harvest.Court{
	Identifier: "kathmandudc",
	Category:   harvest.CategoryDistrict,
	NameLocal:  "काठमाडौं जिल्ला अदालत",
	PortalID:   39,
}

const districtCauselist = `<html><body>
<table>
  <tr>
    <td align="right">इजलास १</td>
    <td class="judge">माननीय न्यायाधीश श्री कृतबहादुर वोहरा</td>
  </tr>
</table>
<table class="record_display" border="1">
  <tr>
    <th>क्र.सं.</th><th>मुद्दा नं</th><th>दर्ता मिती</th><th>मुद्दा</th><th>वादी</th>
    <th>प्रतिवादी</th><th>फाँटवाला</th><th>प्राथमिकता</th><th>कैफियत</th><th>किसिम</th>
  </tr>
  <tr>
    <td>१</td>
    <td>०८१-C१-०१३६<br>(३५-०८१-००७१३)</td>
    <td>२०८१/०५/१२<br>सामान्य मार्ग</td>
    <td>चेक अनादर</td>
    <td>राम बहादुर</td>
    <td>श्याम प्रसाद</td>
    <td>मुद्दा फाटँ २७</td>
    <td>सरल</td>
    <td></td>
    <td>आदेश</td>
  </tr>
  <tr>
    <td>२</td>
    <td>०८१-C२-००४५</td>
    <td>२०८०/११/०३</td>
    <td>लेनदेन</td>
    <td>गीता देवी</td>
    <td>हरि कुमार</td>
    <td></td>
    <td></td>
    <td>थुनछेक</td>
    <td>फैसला</td>
  </tr>
  <tr>
    <td>३</td>
    <td>०८१-C३-००९९</td>
    <td>२०८१/०१/२०</td>
    <td>अंश</td>
    <td>सीता कुमारी</td>
    <td>मोहन लाल</td>
    <td></td>
    <td></td>
    <td></td>
    <td></td>
  </tr>
  <tr><td>इजलास अधिकृत: श्री अधिकारी</td></tr>
</table>
</body></html>`

func districtAdapter(post func(url string, form, headers map[string]string) ([]byte, error)) *District {
	return NewDistrict(fetchFunc{post: post}, zap.NewNop(), testClock, "https://portal.test")
}

func TestDistrictHarvestUnit(t *testing.T) {
	t.Parallel()

	var gotURL string
	var gotForm map[string]string
	adapter := districtAdapter(func(url string, form, _ map[string]string) ([]byte, error) {
		gotURL = url
		gotForm = form
		return []byte(districtCauselist), nil
	})

	date := calendar.Date{Year: 2081, Month: 9, Day: 28}
	result, err := adapter.HarvestUnit(context.Background(), kathmandu, date)
	require.NoError(t, err)

	require.Equal(t, "https://portal.test/weekly_dainik/pesi/daily/39", gotURL)
	require.Equal(t, "2081-09-28", gotForm["pesi_date"])
	require.Equal(t, "खोज्नु होस्", gotForm["submit"])
	require.NotEmpty(t, gotForm["todays_date"])

	require.Equal(t, "3 cases", result.Summary)
	require.Len(t, result.Sightings, 3)

	first := result.Sightings[0]
	require.Equal(t, "081-C1-0136", first.Case.CaseNumber)
	require.Equal(t, "35-081-00713", first.Case.InternalID)
	require.Equal(t, "2081-05-12", first.Case.RegistrationDateBS)
	require.NotNil(t, first.Case.RegistrationDateAD)
	require.Equal(t, "चेक अनादर", first.Case.CaseType)
	require.Equal(t, "राम बहादुर", first.Case.Plaintiff)
	require.Equal(t, "श्याम प्रसाद", first.Case.Defendant)
	require.Equal(t, "मुद्दा फाटँ २७", first.Case.Section)
	require.Equal(t, "सरल", first.Case.Priority)
	require.Equal(t, harvest.StatusPending, first.Case.Status)

	require.Equal(t, "2081-09-28", first.Hearing.DateBS)
	require.Equal(t, "इजलास १", first.Hearing.Bench)
	require.Equal(t, "माननीय न्यायाधीश श्री कृतबहादुर वोहरा", first.Hearing.JudgeNames)
	require.Equal(t, "1", first.Hearing.SerialNo)
	require.Equal(t, "आदेश", first.Hearing.DecisionType)

	// All three hearings carry the same bench from the heading table.
	for _, s := range result.Sightings {
		require.Equal(t, "इजलास १", s.Hearing.Bench)
	}
}

func TestDistrictNoCauselist(t *testing.T) {
	t.Parallel()

	adapter := districtAdapter(func(string, map[string]string, map[string]string) ([]byte, error) {
		return []byte(`<html><body><div class="alert_error">Causelist is not available !!</div></body></html>`), nil
	})

	result, err := adapter.HarvestUnit(context.Background(), kathmandu, calendar.Date{Year: 2081, Month: 9, Day: 27})
	require.NoError(t, err)
	require.Empty(t, result.Sightings)
	require.Equal(t, "0 cases", result.Summary)
}

func TestDistrictWAFBlock(t *testing.T) {
	t.Parallel()

	adapter := districtAdapter(func(string, map[string]string, map[string]string) ([]byte, error) {
		return []byte(wafBanner), nil
	})

	_, err := adapter.HarvestUnit(context.Background(), kathmandu, calendar.Date{Year: 2081, Month: 9, Day: 28})
	var blocked *harvest.BlockedError
	require.ErrorAs(t, err, &blocked)
	require.Equal(t, "kathmandudc", blocked.CourtID)
	require.Equal(t, "2081-09-28", blocked.DateBS)
}

func TestDistrictNoTables(t *testing.T) {
	t.Parallel()

	adapter := districtAdapter(func(string, map[string]string, map[string]string) ([]byte, error) {
		return []byte(`<html><body><p>nothing here</p></body></html>`), nil
	})

	result, err := adapter.HarvestUnit(context.Background(), kathmandu, calendar.Date{Year: 2081, Month: 9, Day: 28})
	require.NoError(t, err)
	require.Empty(t, result.Sightings)
	require.Equal(t, "0 cases", result.Summary)
}
