// Package courts holds the static registry of Nepal's court system: the
// supreme court, the special court, 18 high courts and 77 district courts.
// District courts are addressed on the portal by a numeric id, the rest by
// their identifier slug.
package courts

import (
	"fmt"

	"github.com/ngmonitor/courtharvest/internal/harvest"
)

// Supreme is the apex court.
var Supreme = harvest.Court{
	Identifier:  "supreme",
	Category:    harvest.CategorySupreme,
	NameLocal:   "सर्वोच्च अदालत",
	NameEnglish: "Supreme Court",
}

// Special is the anti-corruption tribunal.
var Special = harvest.Court{
	Identifier:  "special",
	Category:    harvest.CategorySpecial,
	NameLocal:   "विशेष अदालत",
	NameEnglish: "Special Court",
}

func high(identifier, nameLocal, nameEnglish string) harvest.Court {
	return harvest.Court{
		Identifier:  identifier,
		Category:    harvest.CategoryHigh,
		NameLocal:   nameLocal,
		NameEnglish: nameEnglish,
	}
}

func district(identifier string, portalID int, districtEnglish, districtLocal string) harvest.Court {
	return harvest.Court{
		Identifier:  identifier,
		Category:    harvest.CategoryDistrict,
		NameLocal:   "जिल्ला अदालत " + districtLocal,
		NameEnglish: "District Court " + districtEnglish,
		PortalID:    portalID,
	}
}

// HighCourts lists every high court, keyed on the portal by identifier.
var HighCourts = []harvest.Court{
	high("biratnagarhc", "उच्च अदालत विराटनगर", "High Court Biratnagar"),
	high("illamhc", "उच्च अदालत इलाम", "High Court Ilam"),
	high("dhankutahc", "उच्च अदालत धनकुटा", "High Court Dhankuta"),
	high("okhaldhungahc", "उच्च अदालत ओखलढुंगा", "High Court Okhaldhunga"),
	high("janakpurhc", "उच्च अदालत जनकपुर", "High Court Janakpur"),
	high("rajbirajhc", "उच्च अदालत राजविराज", "High Court Rajbiraj"),
	high("birganjhc", "उच्च अदालत वीरगंज", "High Court Birgunj"),
	high("patanhc", "उच्च अदालत पाटन", "High Court Patan"),
	high("hetaudahc", "उच्च अदालत हेटौंडा", "High Court Hetauda"),
	high("pokharahc", "उच्च अदालत पोखरा", "High Court Pokhara"),
	high("baglunghc", "उच्च अदालत बागलुंग", "High Court Baglung"),
	high("tulsipurhc", "उच्च अदालत तुलसीपुर", "High Court Tulsipur"),
	high("butwalhc", "उच्च अदालत बुटवल", "High Court Butwal"),
	high("nepalgunjhc", "उच्च अदालत नेपालगंज", "High Court Nepalgunj"),
	high("surkhethc", "उच्च अदालत सुर्खेत", "High Court Surkhet"),
	high("jumlahc", "उच्च अदालत जुम्ला", "High Court Jumla"),
	high("dipayalhc", "उच्च अदालत दिपायल", "High Court Dipayal"),
	high("mahendranagarhc", "उच्च अदालत महेन्द्रनगर", "High Court Mahendranagar"),
}

// DistrictCourts lists every district court with its portal id.
var DistrictCourts = []harvest.Court{
	district("achhamdc", 86, "Achham", "अछाम"),
	district("argakhanchidc", 64, "Arghakhanchi", "अर्घाखाँची"),
	district("ilamdc", 19, "Ilam", "इलाम"),
	district("udayapurdc", 31, "Udayapur", "उदयपुर"),
	district("okhaldhungadc", 29, "Okhaldhunga", "ओखलढुंगा"),
	district("kanchanpurdc", 92, "Kanchanpur", "कञ्चनपुर"),
	district("kapilbastudc", 68, "Kapilbastu", "कपिलवस्तु"),
	district("kathmandudc", 39, "Kathmandu", "काठमाडौं"),
	district("kavrepalanchowkdc", 44, "Kavrepalanchowk", "काभ्रेपलान्चोक"),
	district("kalikotdc", 83, "Kalikot", "कालिकोट"),
	district("kaskidc", 57, "Kaski", "कास्की"),
	district("kailalidc", 85, "Kailali", "कैलाली"),
	district("khotangdc", 30, "Khotang", "खोटांङ"),
	district("gulmidc", 63, "Gulmi", "गुल्मी"),
	district("gorkhadc", 54, "Gorkha", "गोरखा"),
	district("chitwandc", 49, "Chitwan", "चितवन"),
	district("jajarkotdc", 76, "Jajarkot", "जाजरकोट"),
	district("jumladc", 79, "Jumla", "जुम्ला"),
	district("jhapadc", 18, "Jhapa", "झापा"),
	district("dadeldhuradc", 91, "Dadeldhura", "डडेलधुरा"),
	district("dotidc", 84, "Doti", "डोटी"),
	district("dolpadc", 81, "Dolpa", "डोल्पा"),
	district("tanahundc", 56, "Tanahun", "तनहुँ"),
	district("taplejungdc", 20, "Taplejung", "ताप्लेजुङ"),
	district("therathumdc", 22, "Therathum", "तेह्रथुम"),
	district("dangdc", 73, "Dang", "दाङ"),
	district("darchuladc", 89, "Darchula", "दार्चुला"),
	district("dailekhdc", 77, "Dailekh", "दैलेख"),
	district("dolakhadc", 42, "Dolakha", "दोलखा"),
	district("dhankutadc", 25, "Dhankuta", "धनकुटा"),
	district("dhanusadc", 36, "Dhanusha", "धनुषा"),
	district("dhadingdc", 46, "Dhading", "धादिङ"),
	district("nawalparasidc", 66, "Nawalparasi", "नवलपरासी"),
	district("nawalpurdc", 95, "Nawalpur", "नवलपुर"),
	district("nuwakotdc", 47, "Nuwakot", "नुवाकोट"),
	district("parbatdc", 61, "Parbat", "पर्वत"),
	district("parsadc", 51, "Parsa", "पर्सा"),
	district("panchthardc", 21, "Panchthar", "पाँचथर"),
	district("palpadc", 65, "Palpa", "पाल्पा"),
	district("pyuthandc", 72, "Pyuthan", "प्युठान"),
	district("bajhangdc", 88, "Bajhang", "बझाङ"),
	district("bardiyadc", 75, "Bardiya", "बर्दिया"),
	district("bankedc", 74, "Banke", "बाँके"),
	district("baglungdc", 62, "Baglung", "बागलुङ"),
	district("bajuradc", 87, "Bajura", "बाजुरा"),
	district("baradc", 50, "Bara", "बारा"),
	district("baitadidc", 90, "Baitadi", "बैतडी"),
	district("bhaktapurdc", 41, "Bhaktapur", "भक्तपुर"),
	district("bhojpurdc", 24, "Bhojpur", "भोजपुर"),
	district("makwanpurdc", 48, "Makwanpur", "मकवानपुर"),
	district("manangdc", 53, "Manang", "मनांग"),
	district("mahottaridc", 37, "Mahottari", "महोत्तरी"),
	district("mugudc", 82, "Mugu", "मुगु"),
	district("mustangdc", 59, "Mustang", "मुस्तांग"),
	district("morangdc", 27, "Morang", "मोरङ"),
	district("myagdidc", 60, "Myagdi", "म्याग्दी"),
	district("rasuwadc", 45, "Rasuwa", "रसुवा"),
	district("ramechapdc", 34, "Ramechhap", "रामेछाप"),
	district("rukumdc", 69, "Rukum", "रुकुम"),
	district("rukumkotdc", 96, "Rukumkot", "रुकुमकोट"),
	district("rupandehidc", 67, "Rupandehi", "रूपन्देही"),
	district("rolpadc", 70, "Rolpa", "रोल्पा"),
	district("rautahatdc", 52, "Rautahat", "रौतहट"),
	district("lamjungdc", 55, "Lamjung", "लमजुंग"),
	district("lalitpurdc", 40, "Lalitpur", "ललितपुर"),
	district("sankhuwasabhadc", 23, "Sankhuwasabha", "संखुवासभा"),
	district("saptaridc", 33, "Saptari", "सप्तरी"),
	district("sarlahidc", 38, "Sarlahi", "सर्लाही"),
	district("salyandc", 71, "Salyan", "सल्यान"),
	district("sindhupalchowkdc", 43, "Sindhupalchowk", "सिन्धुपाल्चोक"),
	district("sindhulidc", 35, "Sindhuli", "सिन्धुली"),
	district("sirahadc", 32, "Siraha", "सिराहा"),
	district("sunsaridc", 26, "Sunsari", "सुनसरी"),
	district("surkhetdc", 78, "Surkhet", "सुर्खेत"),
	district("solukhumbudc", 28, "Solukhumbu", "सोलुखुम्बु"),
	district("syangjadc", 58, "Syangja", "स्याङ्जा"),
	district("humladc", 80, "Humla", "हुम्ला"),
}

// All returns every court in the registry.
func All() []harvest.Court {
	all := make([]harvest.Court, 0, 2+len(HighCourts)+len(DistrictCourts))
	all = append(all, Supreme, Special)
	all = append(all, HighCourts...)
	all = append(all, DistrictCourts...)
	return all
}

// ByCategory returns the courts of one category.
func ByCategory(category harvest.CourtCategory) []harvest.Court {
	var out []harvest.Court
	for _, c := range All() {
		if c.Category == category {
			out = append(out, c)
		}
	}
	return out
}

// ByIdentifier looks a court up by its slug.
func ByIdentifier(identifier string) (harvest.Court, error) {
	for _, c := range All() {
		if c.Identifier == identifier {
			return c, nil
		}
	}
	return harvest.Court{}, fmt.Errorf("unknown court %q", identifier)
}
