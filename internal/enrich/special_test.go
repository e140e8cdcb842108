package enrich

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ngmonitor/courtharvest/internal/harvest"
)

const specialDetailPage = `<html><body>
<table width="100%" border="0" cellspacing="0" cellpadding="1">
  <tr>
    <td class="caption">दर्ता नँ .</td><td>०८०-CR-००४८</td>
    <td class="caption">दर्ता मिती</td><td>२०८०/०९/१५</td>
  </tr>
  <tr>
    <td class="caption">मुद्दाको किसिम</td><td>भ्रष्टाचार</td>
    <td class="caption">मुद्दा</td><td>घुस रिसवत लिई भ्रष्टाचार गरेको</td>
  </tr>
  <tr>
    <td class="caption">फाँट</td><td>फाँट क</td>
    <td class="caption">मुद्दाको स्थिती</td><td>चालु</td>
  </tr>
  <tr><td class="caption">वादीहरु</td><td>नेपाल सरकार</td></tr>
  <tr><td class="caption">प्रतिवादीहरु</td><td>जुनो कुमार, हिरा लाल समेत</td></tr>
  <tr><td class="caption">वादी अधिवक्ताहरु</td><td>श्री रमेश अधिकारी</td></tr>
  <tr><td class="caption">प्रतिवादी अधिवक्ताहरु</td><td>श्री सरिता कोइराला</td></tr>
</table>
<table>
  <tr><td>पेशी तारेख</td></tr>
  <tr><td>
    <table class="utivtbl">
      <tr><td>मिती</td><td>किसिम</td></tr>
      <tr><td>२०८१/०९/२८</td><td>पेशी</td></tr>
      <tr><td>२०८१/१०/१५</td><td>पेशी</td></tr>
    </table>
  </td></tr>
</table>
<table>
  <tr><td>साधारण तारेख</td></tr>
  <tr><td>
    <table class="utivtbl">
      <tr><td>मिती</td><td>किसिम</td></tr>
      <tr><td>२०८१/०८/०१</td><td>तारेख</td></tr>
    </table>
  </td></tr>
</table>
<table>
  <tr><td>लगाब मुद्दाहरुको विवरण</td></tr>
  <tr><td>
    <table class="utivtbl">
      <tr><td>नं</td><td>मिती</td><td>मुद्दा</td><td>वादी</td><td>प्रतिवादी</td><td>स्थिती</td></tr>
      <tr><td>077-CR-0012</td><td>२०७७/०३/११</td><td>भ्रष्टाचार</td><td>नेपाल सरकार</td><td>जुनो कुमार</td><td>फैसला भएको</td></tr>
    </table>
  </td></tr>
</table>
<table>
  <tr><td>पेशी को विवरण</td></tr>
  <tr><td>
    <table class="utivtbl">
      <tr><td>मिती</td><td>न्यायाधीश</td><td>स्थिती</td><td>किसिम</td></tr>
      <tr>
        <td>२०८१/०९/२८</td>
        <td>श्री सुदर्शनदेव भट्ट<br>श्री हेमन्त रावल</td>
        <td>चालु</td>
        <td>थुनछेक आदेश</td>
      </tr>
    </table>
  </td></tr>
</table>
</body></html>`

func TestSpecialFetchDetail(t *testing.T) {
	t.Parallel()

	fetcher := fetchFunc{
		post: func(url string, form, _ map[string]string) ([]byte, error) {
			require.Equal(t, "https://portal.test/special/syspublic.php?d=reports&f=case_details", url)
			require.Equal(t, "show", form["mode"])
			require.Equal(t, "080-CR-0048", form["regno"])
			require.Equal(t, " Search ", form["submit"])
			require.Equal(t, "", form["syy"])
			return []byte(specialDetailPage), nil
		},
	}
	enricher := NewSpecial(fetcher, zap.NewNop(), "special", "https://portal.test")

	detail, err := enricher.FetchDetail(context.Background(), "080-CR-0048")
	require.NoError(t, err)

	require.Equal(t, "०८०-CR-००४८", detail.RegistrationNumber)
	require.Equal(t, "2080-09-15", detail.RegistrationDateBS)
	require.NotNil(t, detail.RegistrationDateAD)
	require.Equal(t, "भ्रष्टाचार", detail.Category)
	require.Equal(t, "घुस रिसवत लिई भ्रष्टाचार गरेको", detail.CaseType)
	require.Equal(t, "फाँट क", detail.Division)
	require.Equal(t, "चालु", detail.CaseStatus)

	// Special court parties are composite strings, stored whole.
	require.Equal(t, []harvest.CaseEntity{
		{Side: harvest.SidePlaintiff, Name: "नेपाल सरकार"},
		{Side: harvest.SideDefendant, Name: "जुनो कुमार, हिरा लाल समेत"},
	}, detail.Entities)

	require.Equal(t, "श्री रमेश अधिकारी", detail.Attributes["plaintiff_advocates"])
	require.Equal(t, "श्री सरिता कोइराला", detail.Attributes["defendant_advocates"])

	pesi, ok := detail.Attributes["enrichment_pesi_tarekh"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, pesi, 2)
	require.Equal(t, "2081-09-28", pesi[0]["pesi_date"])
	require.Equal(t, "पेशी", pesi[0]["pesi_type"])

	sadharan, ok := detail.Attributes["enrichment_sadharan_tarekh"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, sadharan, 1)
	require.Equal(t, "2081-08-01", sadharan[0]["tarekh_date"])

	related, ok := detail.Attributes["enrichment_related_cases"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, related, 1)
	require.Equal(t, "077-CR-0012", related[0]["case_number"])
	require.Equal(t, "2077-03-11", related[0]["registration_date"])
	require.Equal(t, "फैसला भएको", related[0]["current_status"])

	hearings, ok := detail.Attributes["enrichment_hearings"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, hearings, 1)
	require.Equal(t, "2081-09-28", hearings[0]["hearing_date"])
	require.Equal(t, []string{"श्री सुदर्शनदेव भट्ट", "श्री हेमन्त रावल"}, hearings[0]["judges"])
	require.Equal(t, "थुनछेक आदेश", hearings[0]["decision_type"])
}

func TestSpecialMissingDossierIsNotFound(t *testing.T) {
	t.Parallel()

	fetcher := fetchFunc{
		post: func(string, map[string]string, map[string]string) ([]byte, error) {
			return []byte(`<html><body><p>रेकर्ड छैन</p></body></html>`), nil
		},
	}
	enricher := NewSpecial(fetcher, zap.NewNop(), "special", "https://portal.test")

	_, err := enricher.FetchDetail(context.Background(), "080-CR-9999")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSpecialWAFBlocked(t *testing.T) {
	t.Parallel()

	fetcher := fetchFunc{
		post: func(string, map[string]string, map[string]string) ([]byte, error) {
			return []byte(wafBanner), nil
		},
	}
	enricher := NewSpecial(fetcher, zap.NewNop(), "special", "https://portal.test")

	_, err := enricher.FetchDetail(context.Background(), "080-CR-0048")
	require.ErrorIs(t, err, errBlocked)
}
