package identity

import "strings"

// FilterUsersByDomain keeps users whose email ends in "@domain".
func FilterUsersByDomain(users []User, domain string) []User {
	suffix := "@" + domain
	kept := make([]User, 0, len(users))
	for _, user := range users {
		if strings.HasSuffix(user.Email, suffix) {
			kept = append(kept, user)
		}
	}
	return kept
}

// FilterGroupsByDomain keeps groups whose email ends in "@domain".
func FilterGroupsByDomain(groups []Group, domain string) []Group {
	suffix := "@" + domain
	kept := make([]Group, 0, len(groups))
	for _, group := range groups {
		if strings.HasSuffix(group.Email, suffix) {
			kept = append(kept, group)
		}
	}
	return kept
}

// FilterEmailsByDomain keeps addresses ending in "@domain".
func FilterEmailsByDomain(emails []string, domain string) []string {
	suffix := "@" + domain
	kept := make([]string, 0, len(emails))
	for _, email := range emails {
		if strings.HasSuffix(email, suffix) {
			kept = append(kept, email)
		}
	}
	return kept
}
