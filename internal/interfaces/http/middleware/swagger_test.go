package middleware

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func swaggerTestRouter(cfg SwaggerConfig, jwtMiddleware gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/swagger/*any", SwaggerProtection(cfg, jwtMiddleware), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "swagger"})
	})
	return router
}

func getSwagger(router *gin.Engine, remoteAddr string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/swagger/index.html", nil)
	if remoteAddr != "" {
		req.RemoteAddr = remoteAddr
	}
	router.ServeHTTP(w, req)
	return w
}

func TestSwaggerProtection(t *testing.T) {
	t.Run("disabled returns 404", func(t *testing.T) {
		router := swaggerTestRouter(SwaggerConfig{Enabled: false}, nil)

		w := getSwagger(router, "")

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "not_found")
	})

	t.Run("enabled without restrictions allows access", func(t *testing.T) {
		router := swaggerTestRouter(SwaggerConfig{Enabled: true}, nil)

		w := getSwagger(router, "")

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("allowed IP passes", func(t *testing.T) {
		router := swaggerTestRouter(SwaggerConfig{
			Enabled:    true,
			AllowedIPs: []string{"127.0.0.1"},
		}, nil)

		w := getSwagger(router, "127.0.0.1:12345")

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("IP outside the allow list is denied", func(t *testing.T) {
		router := swaggerTestRouter(SwaggerConfig{
			Enabled:    true,
			AllowedIPs: []string{"10.0.0.1"},
		}, nil)

		w := getSwagger(router, "192.168.1.1:12345")

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "forbidden")
	})

	t.Run("CIDR ranges are honored", func(t *testing.T) {
		router := swaggerTestRouter(SwaggerConfig{
			Enabled:    true,
			AllowedIPs: []string{"10.0.0.0/8"},
		}, nil)

		assert.Equal(t, http.StatusOK, getSwagger(router, "10.50.100.200:12345").Code)
		assert.Equal(t, http.StatusForbidden, getSwagger(router, "192.168.1.1:12345").Code)
	})

	t.Run("auth requirement denies without a valid token", func(t *testing.T) {
		jwtDeny := func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		}
		router := swaggerTestRouter(SwaggerConfig{Enabled: true, RequireAuth: true}, jwtDeny)

		w := getSwagger(router, "")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("auth requirement passes with a valid token", func(t *testing.T) {
		jwtAllow := func(c *gin.Context) {
			c.Set(JWTUserIDKey, "test-user")
			c.Next()
		}
		router := swaggerTestRouter(SwaggerConfig{Enabled: true, RequireAuth: true}, jwtAllow)

		w := getSwagger(router, "")

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("IP check runs before auth when combined", func(t *testing.T) {
		jwtAllow := func(c *gin.Context) {
			c.Set(JWTUserIDKey, "test-user")
			c.Next()
		}
		router := swaggerTestRouter(SwaggerConfig{
			Enabled:     true,
			RequireAuth: true,
			AllowedIPs:  []string{"127.0.0.1"},
		}, jwtAllow)

		assert.Equal(t, http.StatusOK, getSwagger(router, "127.0.0.1:12345").Code)
		assert.Equal(t, http.StatusForbidden, getSwagger(router, "192.168.1.1:12345").Code)
	})
}

func TestIsIPAllowed(t *testing.T) {
	tests := []struct {
		name        string
		ip          string
		allowedIPs  []string
		allowedCIDR []string
		want        bool
	}{
		{
			name:       "exact IP match",
			ip:         "192.168.1.1",
			allowedIPs: []string{"192.168.1.1"},
			want:       true,
		},
		{
			name:       "no match",
			ip:         "192.168.1.2",
			allowedIPs: []string{"192.168.1.1"},
			want:       false,
		},
		{
			name:        "CIDR match",
			ip:          "10.0.0.5",
			allowedCIDR: []string{"10.0.0.0/8"},
			want:        true,
		},
		{
			name:        "CIDR no match",
			ip:          "11.0.0.5",
			allowedCIDR: []string{"10.0.0.0/8"},
			want:        false,
		},
		{
			name:       "localhost IPv4",
			ip:         "127.0.0.1",
			allowedIPs: []string{"127.0.0.1"},
			want:       true,
		},
		{
			name:       "IPv6 localhost",
			ip:         "::1",
			allowedIPs: []string{"::1"},
			want:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var allowedIPs []net.IP
			for _, ipStr := range tt.allowedIPs {
				if ip := net.ParseIP(ipStr); ip != nil {
					allowedIPs = append(allowedIPs, ip)
				}
			}

			var allowedNets []*net.IPNet
			for _, cidr := range tt.allowedCIDR {
				if _, network, err := net.ParseCIDR(cidr); err == nil {
					allowedNets = append(allowedNets, network)
				}
			}

			got := isIPAllowed(net.ParseIP(tt.ip), allowedIPs, allowedNets)
			assert.Equal(t, tt.want, got)
		})
	}
}
