package htmlscrape

import (
	"testing"

	domainauth "github.com/danxi/authgate/internal/domain/auth"
	"github.com/stretchr/testify/assert"
)

func TestTokenScraper_Extract(t *testing.T) {
	tests := []struct {
		name string
		page string
		want domainauth.FormFields
	}{
		{
			name: "hidden login fields",
			page: `<form><input type="hidden" name="lt" value="LT-1"/>
				<input type="hidden" name="execution" value="e1s1">
				<input name="_eventId" value='submit'></form>`,
			want: domainauth.FormFields{"lt": "LT-1", "execution": "e1s1", "_eventId": "submit"},
		},
		{
			name: "missing value or name is skipped",
			page: `<input name="username"><input value="orphan"><input name="" value="x">`,
			want: domainauth.FormFields{},
		},
		{
			name: "empty value is kept",
			page: `<input name="captcha" value="">`,
			want: domainauth.FormFields{"captcha": ""},
		},
		{
			name: "later duplicate wins",
			page: `<input name="a" value="1"><input name="a" value="2">`,
			want: domainauth.FormFields{"a": "2"},
		},
		{
			name: "entities are decoded and case is folded",
			page: "<INPUT\n  VALUE=\"a&amp;b\"\n  NAME=\"token\">",
			want: domainauth.FormFields{"token": "a&b"},
		},
		{
			name: "non-input tags ignored",
			page: `<select name="s" value="v"></select><textarea name="t" value="v"></textarea>`,
			want: domainauth.FormFields{},
		},
		{
			name: "empty page",
			page: "",
			want: domainauth.FormFields{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TokenScraper{}.Extract(tt.page)
			assert.Equal(t, tt.want, got)
		})
	}
}
