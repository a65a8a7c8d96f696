package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	apperrors "github.com/ka-abfall/abfallbot/internal/errors"
	"github.com/ka-abfall/abfallbot/pkg/config"
	"github.com/ka-abfall/abfallbot/pkg/metrics"
)

const hasuraSecretHeader = "x-hasura-admin-secret"

// Client implements Service against a Hasura GraphQL endpoint.
type Client struct {
	httpClient  *http.Client
	endpoint    string
	adminSecret string
}

var _ Service = (*Client)(nil)

// NewClient builds the data service client from configuration.
func NewClient(cfg config.BackendConfig) *Client {
	return &Client{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		endpoint:    cfg.Endpoint,
		adminSecret: cfg.AdminSecret,
	}
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// query posts one GraphQL operation and decodes the data envelope into out.
func (c *Client) query(ctx context.Context, operation, query string, variables map[string]any, out any) error {
	body, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return apperrors.NewBackendError(operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return apperrors.NewBackendError(operation, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(hasuraSecretHeader, c.adminSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordBackendRequest(operation, "error")
		return apperrors.NewBackendError(operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.RecordBackendRequest(operation, "error")
		return apperrors.NewBackendError(operation, fmt.Errorf("status %d", resp.StatusCode))
	}

	var decoded graphqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		metrics.RecordBackendRequest(operation, "error")
		return apperrors.NewBackendError(operation, fmt.Errorf("decode response: %w", err))
	}

	if len(decoded.Errors) > 0 {
		metrics.RecordBackendRequest(operation, "error")
		return apperrors.NewBackendError(operation, fmt.Errorf("graphql: %s", decoded.Errors[0].Message))
	}

	if out != nil {
		if err := json.Unmarshal(decoded.Data, out); err != nil {
			metrics.RecordBackendRequest(operation, "error")
			return apperrors.NewBackendError(operation, fmt.Errorf("decode data: %w", err))
		}
	}

	metrics.RecordBackendRequest(operation, "ok")
	return nil
}

const searchStreetsQuery = `
query SearchStreets($pattern: String!, $limit: Int!) {
  streets(where: {street: {_ilike: $pattern}}, limit: $limit, order_by: {street: asc}) {
    id
    street
  }
}`

// SearchStreets returns up to limit streets matching the query fuzzily.
func (c *Client) SearchStreets(ctx context.Context, query string, limit int) ([]Street, error) {
	var out struct {
		Streets []Street `json:"streets"`
	}

	variables := map[string]any{
		"pattern": "%" + query + "%",
		"limit":   limit,
	}
	if err := c.query(ctx, "search_streets", searchStreetsQuery, variables, &out); err != nil {
		return nil, err
	}

	return out.Streets, nil
}

const streetIDQuery = `
query StreetID($street: String!) {
  streets(where: {street: {_eq: $street}}, limit: 1) {
    id
  }
}`

// StreetID resolves an exact street name to its identifier.
func (c *Client) StreetID(ctx context.Context, exactName string) (int64, bool, error) {
	var out struct {
		Streets []struct {
			ID int64 `json:"id"`
		} `json:"streets"`
	}

	if err := c.query(ctx, "street_id", streetIDQuery, map[string]any{"street": exactName}, &out); err != nil {
		return 0, false, err
	}

	if len(out.Streets) == 0 {
		return 0, false, nil
	}

	return out.Streets[0].ID, true, nil
}

const addUserMutation = `
mutation AddUser($chat_id: bigint!, $first_name: String, $last_name: String, $street_id: bigint, $house_number: String) {
  insert_users_one(
    object: {client_id: $chat_id, first_name: $first_name, last_name: $last_name, street_id: $street_id, house_number: $house_number, active: true}
    on_conflict: {constraint: users_pkey, update_columns: [first_name, last_name, street_id, house_number]}
  ) {
    client_id
  }
}`

// AddUser registers or updates the chat's address.
func (c *Client) AddUser(ctx context.Context, user UserRecord) error {
	variables := map[string]any{
		"chat_id":      user.ChatID,
		"first_name":   user.FirstName,
		"last_name":    user.LastName,
		"street_id":    user.StreetID,
		"house_number": user.HouseNumber,
	}

	return c.query(ctx, "add_user", addUserMutation, variables, nil)
}

const notificationStatusQuery = `
query NotificationStatus($chat_id: bigint!) {
  users_by_pk(client_id: $chat_id) {
    active
  }
}`

// NotificationStatus returns the chat's notification flag.
func (c *Client) NotificationStatus(ctx context.Context, chatID int64) (bool, bool, error) {
	var out struct {
		User *struct {
			Active bool `json:"active"`
		} `json:"users_by_pk"`
	}

	if err := c.query(ctx, "notification_status", notificationStatusQuery, map[string]any{"chat_id": chatID}, &out); err != nil {
		return false, false, err
	}

	if out.User == nil {
		return false, false, nil
	}

	return out.User.Active, true, nil
}

const setNotificationMutation = `
mutation SetNotification($chat_id: bigint!, $active: Boolean!) {
  update_users_by_pk(pk_columns: {client_id: $chat_id}, _set: {active: $active}) {
    active
  }
}`

// SetNotification flips the notification flag and returns the stored value.
func (c *Client) SetNotification(ctx context.Context, chatID int64, enabled bool) (bool, error) {
	var out struct {
		User *struct {
			Active bool `json:"active"`
		} `json:"update_users_by_pk"`
	}

	variables := map[string]any{"chat_id": chatID, "active": enabled}
	if err := c.query(ctx, "set_notification", setNotificationMutation, variables, &out); err != nil {
		return false, err
	}

	if out.User == nil {
		return false, apperrors.NewBackendError("set_notification", fmt.Errorf("no user record for chat %d", chatID))
	}

	return out.User.Active, nil
}

const removeUserDataMutation = `
mutation RemoveUserData($chat_id: bigint!) {
  delete_users(where: {client_id: {_eq: $chat_id}}) {
    affected_rows
  }
}`

// RemoveUserData deletes the chat's registration.
func (c *Client) RemoveUserData(ctx context.Context, chatID int64) (int64, error) {
	var out struct {
		Deleted struct {
			AffectedRows int64 `json:"affected_rows"`
		} `json:"delete_users"`
	}

	if err := c.query(ctx, "remove_user_data", removeUserDataMutation, map[string]any{"chat_id": chatID}, &out); err != nil {
		return 0, err
	}

	return out.Deleted.AffectedRows, nil
}

const tomorrowsPickupsQuery = `
query TomorrowsPickups($chat_id: bigint!) {
  tomorrows_trash(args: {client: $chat_id}) {
    date
    trash_type_by_trash_type {
      name
    }
  }
}`

// TomorrowsPickups lists the chat's collection events for tomorrow.
func (c *Client) TomorrowsPickups(ctx context.Context, chatID int64) ([]Pickup, error) {
	var out struct {
		Dates []struct {
			Date      Date `json:"date"`
			TrashType struct {
				Name string `json:"name"`
			} `json:"trash_type_by_trash_type"`
		} `json:"tomorrows_trash"`
	}

	if err := c.query(ctx, "tomorrows_trash", tomorrowsPickupsQuery, map[string]any{"chat_id": chatID}, &out); err != nil {
		return nil, err
	}

	pickups := make([]Pickup, 0, len(out.Dates))
	for _, entry := range out.Dates {
		pickups = append(pickups, Pickup{
			Date:      entry.Date,
			TrashType: entry.TrashType.Name,
		})
	}

	return pickups, nil
}

const userDataQuery = `
query UserData($chat_id: bigint!) {
  users_by_pk(client_id: $chat_id) {
    first_name
    last_name
    house_number
    active
    street {
      street
    }
  }
}`

// UserData returns the stored registration fields for display.
func (c *Client) UserData(ctx context.Context, chatID int64) (map[string]string, error) {
	var out struct {
		User *struct {
			FirstName   string `json:"first_name"`
			LastName    string `json:"last_name"`
			HouseNumber string `json:"house_number"`
			Active      bool   `json:"active"`
			Street      *struct {
				Name string `json:"street"`
			} `json:"street"`
		} `json:"users_by_pk"`
	}

	if err := c.query(ctx, "user_data", userDataQuery, map[string]any{"chat_id": chatID}, &out); err != nil {
		return nil, err
	}

	if out.User == nil {
		return nil, nil
	}

	fields := map[string]string{
		"first_name":   out.User.FirstName,
		"last_name":    out.User.LastName,
		"house_number": out.User.HouseNumber,
	}
	if out.User.Active {
		fields["notifications"] = "an"
	} else {
		fields["notifications"] = "aus"
	}
	if out.User.Street != nil {
		fields["street"] = out.User.Street.Name
	}

	return fields, nil
}

const notificationRecipientsQuery = `
query NotificationRecipients {
  users(where: {active: {_eq: true}}) {
    client_id
  }
}`

// NotificationRecipients lists chats with notifications enabled.
func (c *Client) NotificationRecipients(ctx context.Context) ([]int64, error) {
	var out struct {
		Users []struct {
			ClientID int64 `json:"client_id"`
		} `json:"users"`
	}

	if err := c.query(ctx, "notification_recipients", notificationRecipientsQuery, nil, &out); err != nil {
		return nil, err
	}

	chatIDs := make([]int64, 0, len(out.Users))
	for _, user := range out.Users {
		chatIDs = append(chatIDs, user.ClientID)
	}

	return chatIDs, nil
}

// HealthCheck issues a minimal query to verify the data service is reachable.
func (c *Client) HealthCheck(ctx context.Context) error {
	var out struct {
		Typename string `json:"__typename"`
	}
	return c.query(ctx, "health_check", `query { __typename }`, nil, &out)
}
