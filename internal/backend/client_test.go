package backend_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweetcrumbs/storefront/internal/backend"
)

func newClient(t *testing.T, h http.HandlerFunc) *backend.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := backend.NewClient(srv.URL, nil)
	require.NoError(t, err)
	return c
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := backend.NewClient("  ", nil)
	require.Error(t, err)
}

func TestLoginSendsCredentials(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/login", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))

		var req backend.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "ana@example.com", req.Email)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"token":"tok-1","user":{"id":"u1","name":"Ana","email":"ana@example.com","role":"customer"}}`)
	})

	resp, err := c.Login(context.Background(), backend.LoginRequest{Email: "ana@example.com", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "tok-1", resp.Token)
	assert.Equal(t, "customer", resp.User.Role)
}

func TestAuthorizedCallSendsBearer(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"id":"u1","name":"Ana"}`)
	})

	u, err := c.Profile(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "Ana", u.Name)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "unauthorized is session expired",
			status: http.StatusUnauthorized,
			body:   `{"message":"jwt expired"}`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, backend.ErrSessionExpired)
			},
		},
		{
			name:   "throttled",
			status: http.StatusTooManyRequests,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, backend.ErrRateLimited)
			},
		},
		{
			name:   "field errors",
			status: http.StatusUnprocessableEntity,
			body:   `{"message":"invalid","errors":[{"field":"email","message":"already taken"}]}`,
			check: func(t *testing.T, err error) {
				var ve *backend.ValidationError
				require.ErrorAs(t, err, &ve)
				require.Len(t, ve.Fields, 1)
				assert.Equal(t, "email", ve.Fields[0].Field)
				assert.Equal(t, "already taken", ve.Fields[0].Message)
			},
		},
		{
			name:   "bad request without field errors",
			status: http.StatusBadRequest,
			body:   `{"message":"Delivery date is required"}`,
			check: func(t *testing.T, err error) {
				var ae *backend.APIError
				require.ErrorAs(t, err, &ae)
				assert.Equal(t, http.StatusBadRequest, ae.Status)
				assert.Equal(t, "Delivery date is required", ae.Message)
			},
		},
		{
			name:   "server error falls back to status text",
			status: http.StatusInternalServerError,
			body:   `oops`,
			check: func(t *testing.T, err error) {
				var ae *backend.APIError
				require.ErrorAs(t, err, &ae)
				assert.Equal(t, http.StatusInternalServerError, ae.Status)
				assert.Equal(t, "Internal Server Error", ae.Message)
			},
		},
		{
			name:   "error field used when message empty",
			status: http.StatusNotFound,
			body:   `{"error":"cake not found"}`,
			check: func(t *testing.T, err error) {
				var ae *backend.APIError
				require.ErrorAs(t, err, &ae)
				assert.Equal(t, "cake not found", ae.Message)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})
			_, err := c.Profile(context.Background(), "tok")
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestUnreachableBackend(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c, err := backend.NewClient(base, &http.Client{Timeout: time.Second})
	require.NoError(t, err)

	_, err = c.ReadyMadeCakes(context.Background())
	var ae *backend.APIError
	require.ErrorAs(t, err, &ae)
	assert.Zero(t, ae.Status)
}

func TestCanceledContextIsReturnedAsIs(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ReadyMadeCakes(ctx)
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
}

func TestCreateCustomCakeOrderJSON(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orders/custom-cake", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "key-1", r.Header.Get("Idempotency-Key"))

		var p backend.OrderPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		assert.Equal(t, "pickup", p.DeliveryMethod)
		require.Len(t, p.Tiers, 1)
		assert.True(t, p.Tiers[0].Flavors[0].Percentage.Equal(decimal.NewFromInt(100)))

		_, _ = io.WriteString(w, `{"orderId":"o-9","whatsappLink":"https://wa.me/123?text=o-9"}`)
	})

	payload := backend.OrderPayload{
		OrderType:      "custom",
		Shape:          "Circle",
		NumberOfTiers:  1,
		Covering:       "Fondant",
		DeliveryMethod: "pickup",
		DeliveryDate:   "2025-11-02",
		Tiers: []backend.TierPayload{{
			TierNumber:      1,
			Size:            "6 inches diameter x 4 inches height",
			NumberOfFlavors: 1,
			Flavors:         []backend.FlavorShare{{Name: "Vanilla", Percentage: decimal.NewFromInt(100)}},
		}},
	}

	res, err := c.CreateCustomCakeOrder(context.Background(), "tok", payload, nil, backend.WithIdempotencyKey("key-1"))
	require.NoError(t, err)
	assert.Equal(t, "o-9", res.OrderID)
	assert.Equal(t, "https://wa.me/123?text=o-9", res.ChatLink)
}

func TestCreateModifyCakeOrderMultipart(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orders/modify-cake", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		var p backend.OrderPayload
		require.NoError(t, json.Unmarshal([]byte(r.FormValue("orderData")), &p))
		assert.Equal(t, "cake-7", p.BaseCakeID)

		f, hdr, err := r.FormFile("designImage")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "design.png", hdr.Filename)
		assert.Equal(t, []byte("png-bytes"), data)

		_, _ = io.WriteString(w, `{"orderId":"o-10"}`)
	})

	img := &backend.Image{Filename: "design.png", ContentType: "image/png", Data: []byte("png-bytes")}
	res, err := c.CreateModifyCakeOrder(context.Background(), "tok", backend.OrderPayload{OrderType: "modify", BaseCakeID: "cake-7"}, img)
	require.NoError(t, err)
	assert.Equal(t, "o-10", res.OrderID)
}

func TestListOrdersQuery(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/orders", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "2", q.Get("page"))
		assert.Equal(t, "pending", q.Get("status"))
		assert.Empty(t, q.Get("deleted"))
		_, _ = io.WriteString(w, `{"orders":[{"id":"o1","status":"pending","total":"45.5"}],"total":1,"page":2,"limit":10}`)
	})

	list, err := c.ListOrders(context.Background(), "tok", backend.ListParams{Page: 2, Status: "pending"})
	require.NoError(t, err)
	require.Len(t, list.Orders, 1)
	assert.True(t, list.Orders[0].Total.Equal(decimal.RequireFromString("45.5")))
}

func TestRecoverUsesPut(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/admin/cake-gallery/c%201/recover", r.URL.EscapedPath())
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, c.Recover(context.Background(), "tok", backend.ResourceGallery, "c 1"))
}

func TestUpdateOrderStatusUsesPut(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/admin/orders/o1/status", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "delivered", body["status"])
		_, _ = io.WriteString(w, `{"id":"o1","status":"delivered","total":"10"}`)
	})

	order, err := c.UpdateOrderStatus(context.Background(), "tok", "o1", "delivered")
	require.NoError(t, err)
	assert.Equal(t, "delivered", order.Status)
}

func TestAdminResourceBackendPaths(t *testing.T) {
	tests := []struct {
		res  backend.Resource
		want string
	}{
		{backend.ResourceGallery, "/admin/cake-gallery"},
		{backend.ResourceReadyMade, "/admin/ready-made-cakes"},
		{backend.ResourceUploads, "/admin/customer-uploads"},
	}

	for _, tt := range tests {
		t.Run(string(tt.res), func(t *testing.T) {
			var got []string
			c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
				got = append(got, r.Method+" "+r.URL.Path)
				switch r.Method {
				case http.MethodGet:
					_, _ = io.WriteString(w, `{"items":[],"total":0,"page":1,"limit":20}`)
				case http.MethodDelete:
					w.WriteHeader(http.StatusNoContent)
				default:
					_, _ = io.WriteString(w, `{"id":"x1","name":"Rose"}`)
				}
			})
			ctx := context.Background()

			if tt.res == backend.ResourceUploads {
				_, err := c.ListUploads(ctx, "tok", backend.ListParams{})
				require.NoError(t, err)
			} else {
				_, err := c.ListCakes(ctx, "tok", tt.res, backend.ListParams{})
				require.NoError(t, err)
				_, err = c.CreateCake(ctx, "tok", tt.res, backend.CakeInput{Name: "Rose"}, backend.Image{Filename: "r.jpg", Data: []byte("jpg")})
				require.NoError(t, err)
				_, err = c.UpdateCake(ctx, "tok", tt.res, "x1", backend.CakeInput{Name: "Rose"})
				require.NoError(t, err)
			}
			require.NoError(t, c.SoftDelete(ctx, "tok", tt.res, "x1"))
			require.NoError(t, c.Recover(ctx, "tok", tt.res, "x1"))

			for _, line := range got {
				assert.Contains(t, line, " "+tt.want, "request %q", line)
			}
			assert.Contains(t, got, "DELETE "+tt.want+"/x1")
			assert.Contains(t, got, "PUT "+tt.want+"/x1/recover")
		})
	}
}

func TestResourceFromBackendName(t *testing.T) {
	res, ok := backend.ResourceFromBackendName("ready-made-cakes")
	assert.True(t, ok)
	assert.Equal(t, backend.ResourceReadyMade, res)

	_, ok = backend.ResourceFromBackendName("ready-made")
	assert.False(t, ok)
}

func TestContactRateLimited(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	err := c.SendContactMessage(context.Background(), backend.ContactMessage{Name: "A", Email: "a@example.com", Message: "hi"})
	assert.ErrorIs(t, err, backend.ErrRateLimited)
}
