package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/oauth2/clientcredentials"
)

const graphBaseURL = "https://graph.microsoft.com/v1.0"

// graphPageSize is Graph's maximum $top value.
const graphPageSize = 999

// GraphSource lists principals from Microsoft Entra ID via the Graph API
// using the OAuth2 client-credentials flow.
type GraphSource struct {
	client  *http.Client
	baseURL string

	mu       sync.Mutex
	managers map[string]string
}

// NewGraphSource builds a Graph source for the given tenant and app
// credentials. Tokens are acquired lazily and refreshed by the underlying
// oauth2 transport.
func NewGraphSource(ctx context.Context, tenantID, clientID, clientSecret string) *GraphSource {
	cfg := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", tenantID),
		Scopes:       []string{"https://graph.microsoft.com/.default"},
	}
	return &GraphSource{
		client:   cfg.Client(ctx),
		baseURL:  graphBaseURL,
		managers: make(map[string]string),
	}
}

// GraphSourceFromEnv builds a Graph source from ENTRA_TENANT_ID,
// ENTRA_CLIENT_ID, and ENTRA_CLIENT_SECRET.
func GraphSourceFromEnv(ctx context.Context) (*GraphSource, error) {
	tenantID := strings.TrimSpace(os.Getenv("ENTRA_TENANT_ID"))
	clientID := strings.TrimSpace(os.Getenv("ENTRA_CLIENT_ID"))
	clientSecret := strings.TrimSpace(os.Getenv("ENTRA_CLIENT_SECRET"))
	if tenantID == "" || clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("missing Entra credentials (ENTRA_TENANT_ID/ENTRA_CLIENT_ID/ENTRA_CLIENT_SECRET)")
	}
	return NewGraphSource(ctx, tenantID, clientID, clientSecret), nil
}

type graphPage struct {
	Value    []map[string]any `json:"value"`
	NextLink string           `json:"@odata.nextLink"`
}

// ListUsers implements Source.
func (g *GraphSource) ListUsers(ctx context.Context, filter string, max int) ([]User, error) {
	params := url.Values{}
	params.Set("$select", "id,displayName,mail,userPrincipalName,department,jobTitle,accountEnabled")
	params.Set("$top", strconv.Itoa(minInt(max, graphPageSize)))
	if filter != "" {
		params.Set("$filter", filter)
	}

	users := make([]User, 0, max)
	err := g.paginate(ctx, g.baseURL+"/users?"+params.Encode(), func(item map[string]any) bool {
		if len(users) >= max {
			return false
		}
		email := firstString(item, "mail", "userPrincipalName")
		if email == "" {
			return true
		}
		displayName := stringField(item, "displayName")
		if displayName == "" {
			displayName = strings.SplitN(email, "@", 2)[0]
		}
		department := stringField(item, "department")
		if department == "" {
			department = DefaultDepartment
		}
		users = append(users, User{
			ID:          stringField(item, "id"),
			Email:       email,
			DisplayName: displayName,
			Department:  department,
			JobTitle:    stringField(item, "jobTitle"),
		})
		return true
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}

// ListGroups implements Source. Groups without a mail address are skipped:
// they cannot be provisioned as directory groups.
func (g *GraphSource) ListGroups(ctx context.Context, filter string, max int) ([]Group, error) {
	params := url.Values{}
	params.Set("$select", "id,displayName,mail,description,mailEnabled")
	params.Set("$top", strconv.Itoa(minInt(max, graphPageSize)))
	if filter != "" {
		params.Set("$filter", filter)
	}

	groups := make([]Group, 0, max)
	err := g.paginate(ctx, g.baseURL+"/groups?"+params.Encode(), func(item map[string]any) bool {
		if len(groups) >= max {
			return false
		}
		email := stringField(item, "mail")
		if email == "" {
			return true
		}
		displayName := stringField(item, "displayName")
		if displayName == "" {
			displayName = strings.SplitN(email, "@", 2)[0]
		}
		groups = append(groups, Group{
			ID:          stringField(item, "id"),
			Email:       email,
			DisplayName: displayName,
			Description: stringField(item, "description"),
		})
		return true
	})
	if err != nil {
		return nil, err
	}
	return groups, nil
}

// ListGroupMembers implements Source.
func (g *GraphSource) ListGroupMembers(ctx context.Context, groupID string) ([]string, error) {
	params := url.Values{}
	params.Set("$select", "id,mail,userPrincipalName")

	var members []string
	err := g.paginate(ctx, fmt.Sprintf("%s/groups/%s/members?%s", g.baseURL, url.PathEscape(groupID), params.Encode()), func(item map[string]any) bool {
		if email := firstString(item, "mail", "userPrincipalName"); email != "" {
			members = append(members, email)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return members, nil
}

// ManagerEmail implements Source. Lookups are cached for the lifetime of
// the source; a missing manager is cached as "".
func (g *GraphSource) ManagerEmail(ctx context.Context, userID string) (string, error) {
	g.mu.Lock()
	email, ok := g.managers[userID]
	g.mu.Unlock()
	if ok {
		return email, nil
	}

	target := fmt.Sprintf("%s/users/%s/manager?$select=mail,userPrincipalName", g.baseURL, url.PathEscape(userID))
	item, err := g.get(ctx, target)
	if err != nil {
		// Users without managers return 404; treat any lookup failure
		// as "no manager" like the rest of the sharing rules do.
		item = nil
	}
	email = ""
	if item != nil {
		email = firstString(item, "mail", "userPrincipalName")
	}

	g.mu.Lock()
	g.managers[userID] = email
	g.mu.Unlock()
	return email, nil
}

func (g *GraphSource) paginate(ctx context.Context, target string, visit func(map[string]any) bool) error {
	for target != "" {
		page, err := g.getPage(ctx, target)
		if err != nil {
			return err
		}
		for _, item := range page.Value {
			if !visit(item) {
				return nil
			}
		}
		target = page.NextLink
	}
	return nil
}

func (g *GraphSource) getPage(ctx context.Context, target string) (*graphPage, error) {
	body, err := g.do(ctx, target)
	if err != nil {
		return nil, err
	}
	var page graphPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("decode Graph response: %w", err)
	}
	return &page, nil
}

func (g *GraphSource) get(ctx context.Context, target string) (map[string]any, error) {
	body, err := g.do(ctx, target)
	if err != nil {
		return nil, err
	}
	var item map[string]any
	if err := json.Unmarshal(body, &item); err != nil {
		return nil, fmt.Errorf("decode Graph response: %w", err)
	}
	return item, nil
}

func (g *GraphSource) do(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Graph request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read Graph response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("Graph API error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}

func stringField(item map[string]any, key string) string {
	value, _ := item[key].(string)
	return strings.TrimSpace(value)
}

func firstString(item map[string]any, keys ...string) string {
	for _, key := range keys {
		if value := stringField(item, key); value != "" {
			return value
		}
	}
	return ""
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
