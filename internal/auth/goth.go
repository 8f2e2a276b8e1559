package auth

import (
	"os"

	"github.com/markbates/goth"
	"github.com/markbates/goth/providers/google"
	"github.com/markbates/goth/providers/microsoftonline"
)

// InitGothProviders registers the mailbox OAuth providers. Gmail connects
// through Google with read scope; MS365 through Microsoft online.
func InitGothProviders() {
	baseURL := os.Getenv("API_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	goth.UseProviders(
		google.New(
			os.Getenv("GOOGLE_CLIENT_ID"),
			os.Getenv("GOOGLE_CLIENT_SECRET"),
			baseURL+"/gmail/callback",
			"email", "https://www.googleapis.com/auth/gmail.readonly",
		),
		microsoftonline.New(
			os.Getenv("MS365_CLIENT_ID"),
			os.Getenv("MS365_CLIENT_SECRET"),
			baseURL+"/ms365/callback",
			"User.Read", "Mail.Read",
		),
	)
}

// ProviderForMailbox maps the API's mailbox names onto goth provider keys.
func ProviderForMailbox(mailbox string) (string, bool) {
	switch mailbox {
	case "gmail":
		return "google", true
	case "ms365":
		return "microsoftonline", true
	default:
		return "", false
	}
}
