package crm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// PersonInput identifies the respondent. Email is the upsert key.
type PersonInput struct {
	Name  string
	Email string
	Phone string
	Role  string
}

type contact struct {
	Value   string `json:"value"`
	Primary bool   `json:"primary"`
	Label   string `json:"label"`
}

func workContact(v string) []contact {
	return []contact{{Value: v, Primary: true, Label: "work"}}
}

// UpsertPerson finds the person by exact email and updates name, phone and
// role, or creates the person when no match exists. It returns 0 only when
// both the lookup path and the create failed. A failed update still returns
// the found id together with the error.
func (c *Client) UpsertPerson(ctx context.Context, in PersonInput) (int64, error) {
	email := strings.TrimSpace(in.Email)
	id, searchErr := c.search(ctx, "persons", url.Values{"term": {email}, "fields": {"email"}})
	if searchErr != nil {
		c.logger.Warn(ctx, "person search failed, creating", logErr(searchErr)...)
	}

	if id != 0 {
		if _, err := c.Call(ctx, http.MethodPut, fmt.Sprintf("/persons/%d", id), c.personBody(in, false)); err != nil {
			return id, fmt.Errorf("update person %d: %w", id, err)
		}
		return id, nil
	}

	id, err := c.create(ctx, "persons", c.personBody(in, true))
	if err != nil {
		return 0, fmt.Errorf("create person: %w", errors.Join(searchErr, err))
	}
	return id, nil
}

func (c *Client) personBody(in PersonInput, withEmail bool) map[string]any {
	body := map[string]any{"name": in.Name}
	if withEmail {
		body["email"] = workContact(strings.TrimSpace(in.Email))
	}
	if phone := strings.TrimSpace(in.Phone); phone != "" {
		body["phone"] = workContact(phone)
	}
	if role := strings.TrimSpace(in.Role); c.roleField != "" && role != "" {
		body[c.roleField] = role
	}
	return body
}
