package authentication_test

import (
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/Kanir1/KindergartenApp/authentication"
	"github.com/Kanir1/KindergartenApp/shared"
	"github.com/Kanir1/KindergartenApp/store"

	"github.com/dgrijalva/jwt-go"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Authenticator", func() {

	var (
		authenticator *Authenticator
		recorder      *httptest.ResponseRecorder
		nextCalled    bool
		seenUserId    string
		next          http.Handler
	)

	sign := func(claims AppClaims) string {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		signed, err := token.SignedString([]byte("test-secret"))
		Expect(err).To(BeNil())
		return signed
	}

	validClaims := func(userId string, roles ...string) AppClaims {
		return AppClaims{
			UserId: userId,
			Roles:  roles,
			StandardClaims: jwt.StandardClaims{
				ExpiresAt: time.Now().UTC().Add(time.Hour).Unix(),
				IssuedAt:  time.Now().UTC().Unix(),
			},
		}
	}

	BeforeEach(func() {
		authenticator = &Authenticator{
			Config: &shared.AppConfig{TokenSecret: "test-secret"},
		}
		recorder = httptest.NewRecorder()
		nextCalled = false
		seenUserId = ""
		next = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			nextCalled = true
			seenUserId = shared.GetUserId(r.Context())
			w.WriteHeader(http.StatusOK)
		})
	})

	It("should reject a request without a token", func() {
		req := httptest.NewRequest(http.MethodGet, "/children", nil)
		authenticator.Roles(next, store.ROLE_ADMIN).ServeHTTP(recorder, req)

		Expect(recorder.Code).To(Equal(http.StatusUnauthorized))
		Expect(nextCalled).To(BeFalse())
	})

	It("should reject a token signed with another secret", func() {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims("p1", store.ROLE_PARENT))
		signed, err := token.SignedString([]byte("some-other-secret"))
		Expect(err).To(BeNil())

		req := httptest.NewRequest(http.MethodGet, "/children", nil)
		req.Header.Set("authorization", "Bearer "+signed)
		authenticator.Roles(next, store.ROLE_PARENT).ServeHTTP(recorder, req)

		Expect(recorder.Code).To(Equal(http.StatusUnauthorized))
		Expect(nextCalled).To(BeFalse())
	})

	It("should reject an expired token", func() {
		claims := validClaims("p1", store.ROLE_PARENT)
		claims.ExpiresAt = time.Now().UTC().Add(-time.Hour).Unix()

		req := httptest.NewRequest(http.MethodGet, "/children", nil)
		req.Header.Set("authorization", "Bearer "+sign(claims))
		authenticator.Roles(next, store.ROLE_PARENT).ServeHTTP(recorder, req)

		Expect(recorder.Code).To(Equal(http.StatusUnauthorized))
		Expect(nextCalled).To(BeFalse())
	})

	It("should refuse a user missing the required role", func() {
		req := httptest.NewRequest(http.MethodGet, "/admin/parents", nil)
		req.Header.Set("authorization", "Bearer "+sign(validClaims("p1", store.ROLE_PARENT)))
		authenticator.Roles(next, store.ROLE_ADMIN).ServeHTTP(recorder, req)

		Expect(recorder.Code).To(Equal(http.StatusForbidden))
		Expect(nextCalled).To(BeFalse())
	})

	It("should pass a user holding one of the required roles and expose the claims", func() {
		req := httptest.NewRequest(http.MethodGet, "/children", nil)
		req.Header.Set("authorization", "Bearer "+sign(validClaims("p1", store.ROLE_PARENT)))
		authenticator.Roles(next, store.ROLE_PARENT, store.ROLE_ADMIN).ServeHTTP(recorder, req)

		Expect(recorder.Code).To(Equal(http.StatusOK))
		Expect(nextCalled).To(BeTrue())
		Expect(seenUserId).To(Equal("p1"))
	})
})
