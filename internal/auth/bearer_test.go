package auth

import (
	"net/http"
	"testing"
)

func TestExtractBearerToken(t *testing.T) {
	cases := []struct {
		name   string
		header http.Header
		want   string
		wantOk bool
	}{
		{
			name:   "bearer token",
			header: http.Header{"Authorization": []string{"Bearer ABC"}},
			want:   "ABC",
			wantOk: true,
		},
		{
			name:   "no authorization header",
			header: http.Header{"X-Other": []string{"Bearer ABC"}},
			wantOk: false,
		},
		{
			name:   "basic scheme rejected",
			header: http.Header{"Authorization": []string{"Basic ABC"}},
			wantOk: false,
		},
		{
			name:   "empty bearer value",
			header: http.Header{"Authorization": []string{"Bearer "}},
			wantOk: false,
		},
		{
			name:   "case insensitive scheme",
			header: http.Header{"Authorization": []string{"bearer XYZ"}},
			want:   "XYZ",
			wantOk: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ExtractBearerToken(tc.header)
			if ok != tc.wantOk {
				t.Fatalf("ok = %v, want %v", ok, tc.wantOk)
			}
			if ok && got != tc.want {
				t.Errorf("token = %q, want %q", got, tc.want)
			}
		})
	}
}
