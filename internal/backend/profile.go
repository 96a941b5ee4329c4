package backend

import (
	"context"
	"net/http"
)

func (c *Client) Profile(ctx context.Context, token string) (*User, error) {
	var resp User
	if err := c.doJSON(ctx, http.MethodGet, "/user/profile", token, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) UpdateProfile(ctx context.Context, token string, in ProfileUpdate) (*User, error) {
	var resp User
	if err := c.doJSON(ctx, http.MethodPut, "/user/profile", token, in, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UploadProfilePicture replaces the profile picture and returns the updated user.
func (c *Client) UploadProfilePicture(ctx context.Context, token string, img Image) (*User, error) {
	var resp User
	files := []FilePart{{Field: "profilePicture", Filename: img.Filename, ContentType: img.ContentType, Data: img.Data}}
	if err := c.doMultipart(ctx, http.MethodPost, "/user/profile/picture", token, nil, files, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) UpdateEmail(ctx context.Context, token string, in EmailUpdate) error {
	return c.doJSON(ctx, http.MethodPut, "/user/settings/email", token, in, nil)
}

func (c *Client) UpdatePassword(ctx context.Context, token string, in PasswordUpdate) error {
	return c.doJSON(ctx, http.MethodPut, "/user/settings/password", token, in, nil)
}
