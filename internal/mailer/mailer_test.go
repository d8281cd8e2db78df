package mailer

import "testing"

func TestFindConfirmationLink(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{
			name: "plain text",
			body: "Click here: https://app.example.com/verifyconfirm?key=abc123 to continue",
			want: "https://app.example.com/verifyconfirm?key=abc123",
		},
		{
			name: "html href",
			body: `<a href="https://app.example.com/confirm/xyz?token=9">Confirm</a>`,
			want: "https://app.example.com/confirm/xyz?token=9",
		},
		{
			name: "quoted printable soft breaks",
			body: "https://app.example.com/verifyconfirm?key=3Dabc=\r\n123",
			want: "https://app.example.com/verifyconfirm?key=abc123",
		},
		{
			name: "trailing punctuation stripped",
			body: "Open https://app.example.com/confirm/abc.",
			want: "https://app.example.com/confirm/abc",
		},
		{
			name: "no link",
			body: "Hello, nothing to see here: https://app.example.com/pricing",
			want: "",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := FindConfirmationLink(tc.body); got != tc.want {
				t.Errorf("FindConfirmationLink = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestSubjectFilter(t *testing.T) {
	if subjectFilter(ModeVerify) == subjectFilter(ModeReverify) {
		t.Error("verify and re-verify must look for different subjects")
	}
}
