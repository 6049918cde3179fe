package usecase

import (
	"net/url"
	"regexp"
	"strings"
)

const canonicalSocialHost = "x.com"

// socialHostAliases are the hostnames the social platform still answers on.
// Links under any of them are rewritten to the canonical host so the same
// post never lands on the list twice under two spellings.
var socialHostAliases = map[string]struct{}{
	"twitter.com":        {},
	"www.twitter.com":    {},
	"mobile.twitter.com": {},
	"www.x.com":          {},
}

var urlLikePattern = regexp.MustCompile(`(?i)^(https?://)?[\w-]+(\.[\w-]+)+(/\S*)?$`)

// NormalizeURL canonicalizes a raw user-supplied link. It prepends https://
// when no http scheme is present, upgrades http to https, folds social
// platform aliases onto the canonical host, and for the canonical host drops
// query string and fragment. It never fails: malformed input comes back as a
// best-effort string for downstream stages to treat as a normal value.
func NormalizeURL(raw string) string {
	link := strings.TrimSpace(raw)
	if !strings.HasPrefix(strings.ToLower(link), "http") {
		link = "https://" + link
	}
	if strings.HasPrefix(strings.ToLower(link), "http://") {
		link = "https://" + link[len("http://"):]
	}

	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		return link
	}
	host := strings.ToLower(u.Host)
	if _, ok := socialHostAliases[host]; ok {
		u.Host = canonicalSocialHost
		host = canonicalSocialHost
	}
	if host == canonicalSocialHost {
		return u.Scheme + "://" + u.Host + u.Path
	}
	return u.String()
}

// LooksLikeURL reports whether free text is plausibly a link, so a pasted URL
// starts a fresh draft no matter which prompt the conversation is sitting at.
func LooksLikeURL(text string) bool {
	return urlLikePattern.MatchString(strings.TrimSpace(text))
}
