package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmails_FiltersNonContactAliases(t *testing.T) {
	raw := "Contact us at info@business.com or support@company.ma. No spam to no-reply@test.com"
	assert.Equal(t, []string{"info@business.com", "support@company.ma"}, Emails(raw))
}

func TestEmails_AliasAnyCase(t *testing.T) {
	raw := "NoReply@shop.ma NO_REPLY@shop.ma Do-Not-Reply@shop.ma Postmaster@shop.ma contact@shop.ma"
	assert.Equal(t, []string{"contact@shop.ma"}, Emails(raw))
}

func TestEmails_CaseInsensitiveDedupe(t *testing.T) {
	raw := "Info@Riad.ma, info@riad.ma, INFO@RIAD.MA"
	assert.Equal(t, []string{"info@riad.ma"}, Emails(raw))
}

func TestEmails_DropsAssetNames(t *testing.T) {
	raw := `<img src="/img/logo@2x.png"> hello@atlas.ma`
	assert.Equal(t, []string{"hello@atlas.ma"}, Emails(raw))
}

func TestEmails_Mailto(t *testing.T) {
	raw := `<a href="mailto:reservation%40hotel-fes.ma?subject=Booking">Book</a>`
	assert.Equal(t, []string{"reservation@hotel-fes.ma"}, Emails(raw))
}

func TestEmails_CloudflareProtected(t *testing.T) {
	// "a@b.ma" XOR 0x42, key first.
	enc := "42" + xorHex("a@b.ma", 0x42)
	raw := `<span class="__cf_email__" data-cfemail="` + enc + `">[email&#160;protected]</span>`
	assert.Equal(t, []string{"a@b.ma"}, Emails(raw))
}

func TestEmails_JSONEscapedHTML(t *testing.T) {
	raw := `{"html":"\u003cspan\u003einfo@shop.ma\u003c/span\u003e","alt":"ventes\\u0040shop.ma"}`
	assert.Equal(t, []string{"info@shop.ma", "ventes@shop.ma"}, Emails(raw))
}

func TestEmails_NoMatch(t *testing.T) {
	got := Emails("nothing here")
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestDecodeCFEmail_Invalid(t *testing.T) {
	assert.Empty(t, DecodeCFEmail("zz"))
	assert.Empty(t, DecodeCFEmail("42"))
}

func TestPhones_LocalAndInternational(t *testing.T) {
	raw := "Contact us at +212 6 12 34 56 78 or 0661234567 for more info"
	assert.Equal(t, []string{"+212612345678", "+212661234567"}, Phones(raw))
}

func TestPhones_SeparatorsAndTrunkZero(t *testing.T) {
	raw := "Tel: 05.35.62.11.00 / 00212 (0)5 35 62 11 00 / +212-661-234-567"
	assert.Equal(t, []string{"+212535621100", "+212661234567"}, Phones(raw))
}

func TestPhones_RejectsEmbeddedDigits(t *testing.T) {
	assert.Empty(t, Phones("order 9066123456789 ref"))
	assert.Empty(t, Phones("0461234567"))
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"0661234567", "+212661234567"},
		{"+212 661 234 567", "+212661234567"},
		{"00212661234567", "+212661234567"},
		{"+212 (0)6 61 23 45 67", "+212661234567"},
		{"12345", ""},
		{"0361234567", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePhone(tt.in))
		})
	}
}

func TestNames_Marker(t *testing.T) {
	assert.Equal(t, []string{"Business Name Test", "Another Business"},
		Names(`7,[["Business Name Test","Another Business"]]`))
}

func TestNames_DepthAndURLs(t *testing.T) {
	raw := `x 12,[["Café Clock",["nested"],"https://cafeclock.com"," Café  Clock "]] y 3,[["Riad \"Fès\""]]`
	assert.Equal(t, []string{"Café Clock", `Riad "Fès"`}, Names(raw))
}

func TestNames_EscapedPayload(t *testing.T) {
	raw := `")]}'\n[\"data\",7,[[\"Dar Anebar\",\"Riad Fes\"]]]`
	assert.Equal(t, []string{"Dar Anebar", "Riad Fes"}, Names(raw))
}

func TestNames_Unterminated(t *testing.T) {
	assert.Empty(t, Names(`7,[["open`))
}

func TestLinks(t *testing.T) {
	raw := `a url?q\\https://example.com\\", b url?q=http://riad.ma/menu&sa=U c /url?q=https://www.dar.ma/`
	assert.Equal(t, []string{"https://example.com", "http://riad.ma/menu", "https://www.dar.ma/"}, Links(raw))
}

func TestFilterSocial(t *testing.T) {
	in := []string{
		"https://www.facebook.com/riad",
		"https://riad.ma",
		"https://m.youtube.com/watch",
		"https://notfacebook.com.ma",
		"https://wa.me/212600000000",
		"https://atlas.ma/contact",
	}
	assert.Equal(t, []string{"https://riad.ma", "https://notfacebook.com.ma", "https://atlas.ma/contact"}, FilterSocial(in))
}

func TestWebsites_UpgradeAndDedupe(t *testing.T) {
	in := []string{
		"http://www.riad.ma/",
		"https://riad.ma",
		"https://riad.ma/#top",
		"https://maps.google.com/place",
		"https://lh3.googleusercontent.com/p.jpg",
		"http://atlas.ma/menu.",
		"ftp://files.ma",
		"https://localhost",
	}
	assert.Equal(t, []string{"https://www.riad.ma", "http://atlas.ma/menu"}, Websites(in))
}

func TestWebsites_StripsTrackingTail(t *testing.T) {
	assert.Equal(t, []string{"https://dentiste.ma/rdv"}, Websites([]string{"https://dentiste.ma/rdv&sa=U&ved=abc"}))
}

func TestWebsites_EscapedRedirectTarget(t *testing.T) {
	in := []string{`https://shop.ma/menu\u0026sa\u003dU`, `https://riad.ma/\\u0026ved\\u003dxyz`}
	assert.Equal(t, []string{"https://shop.ma/menu", "https://riad.ma"}, Websites(in))
}

func TestUnescapeHex(t *testing.T) {
	assert.Equal(t, `<b>a&b=c@d</b>`, unescapeHex(`\u003cb\u003ea\u0026b\u003dc\u0040d\u003c/b\u003e`))
	assert.Equal(t, "Fès", unescapeHex(`F\u00e8s`))
	assert.Equal(t, "plain u00 text", unescapeHex("plain u00 text"))
}

func TestAddresses(t *testing.T) {
	raw := "Ouvert 9h-18h · Rue Talaa Kebira, Fès 30000, Maroc · 4,5 étoiles, 120 avis"
	got := Addresses(raw)
	require.NotEmpty(t, got)
	assert.Contains(t, got, "Rue Talaa Kebira, Fès 30000, Maroc")
	for _, a := range got {
		assert.NotContains(t, a, "avis")
	}
}

func TestAddresses_PostalWithoutStreet(t *testing.T) {
	got := Addresses("12 Sidi Brahim, 30000 Fès")
	assert.Equal(t, []string{"12 Sidi Brahim, 30000 Fès"}, got)
}

func TestAddresses_StreetTokens(t *testing.T) {
	got := Addresses("Résidence Al Amal 12, Agdal, 10090 Rabat")
	assert.Equal(t, []string{"Résidence Al Amal 12, Agdal, 10090 Rabat"}, got)

	got = Addresses("Lot 5, Sidi Brahim, Fès")
	assert.Equal(t, []string{"Lot 5, Sidi Brahim, Fès"}, got)
}

func TestAddresses_Arabic(t *testing.T) {
	got := Addresses("شارع الحسن الثاني, فاس")
	assert.Equal(t, []string{"شارع الحسن الثاني, فاس"}, got)
}

func TestAddresses_TooShortOrPlain(t *testing.T) {
	assert.Empty(t, Addresses("a, b"))
	assert.Empty(t, Addresses("great food, nice staff, friendly"))
}

func TestNoDuplicates(t *testing.T) {
	raw := strings.Repeat("0661234567 info@a.ma url?q=https://a.ma 1,[[\"A\"]] Rue X 5, Fès ", 3)
	p := New()
	for name, got := range map[string][]string{
		"phones":    p.Phones(raw),
		"emails":    p.Emails(raw),
		"names":     p.Names(raw),
		"links":     Unique(p.Links(raw)),
		"addresses": p.Addresses(raw),
	} {
		seen := map[string]bool{}
		for _, v := range got {
			assert.False(t, seen[v], "%s: duplicate %q", name, v)
			seen[v] = true
		}
	}
}

func xorHex(s string, key byte) string {
	const hexdigits = "0123456789abcdef"
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i] ^ key
		b.WriteByte(hexdigits[c>>4])
		b.WriteByte(hexdigits[c&0x0f])
	}
	return b.String()
}
