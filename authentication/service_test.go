package authentication_test

import (
	"context"

	. "github.com/Kanir1/KindergartenApp/authentication"
	"github.com/Kanir1/KindergartenApp/parents"
	"github.com/Kanir1/KindergartenApp/shared"
	"github.com/Kanir1/KindergartenApp/store"
	"github.com/Kanir1/KindergartenApp/store/mocks"

	"github.com/dgrijalva/jwt-go"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/mock"
)

type mockParentLinker struct {
	mock.Mock
}

func (m *mockParentLinker) SelfServeLinkOrCreate(ctx context.Context, userId string, request parents.LinkChildTransport) (store.Child, bool, error) {
	args := m.Called(userId, request)
	return args.Get(0).(store.Child), args.Bool(1), args.Error(2)
}

var _ = Describe("AuthenticationService", func() {

	var (
		ctx           = context.Background()
		service       *AuthenticationService
		mockStore     *mocks.MockStore
		linker        *mockParentLinker
		returnedError error

		parentUser = store.User{
			UserId: store.DbNullString("u1"),
			Email:  store.DbNullString("jane@example.com"),
			Roles:  store.Roles{{UserId: "u1", Role: store.ROLE_PARENT}},
		}
	)

	BeforeEach(func() {
		mockStore = &mocks.MockStore{}
		linker = &mockParentLinker{}
		service = &AuthenticationService{
			Store:        mockStore,
			ParentLinker: linker,
			Config: &shared.AppConfig{
				TokenSecret:        "test-secret",
				TokenValidityHours: 1,
			},
			Logger: shared.NewLogger("test"),
		}
	})

	var assertErrorWithCause = func(cause error) {
		It("should return an error with the expected cause", func() {
			Expect(returnedError).NotTo(BeNil())
			Expect(errors.Cause(returnedError)).To(Equal(cause))
		})
	}

	Context("Authenticate", func() {

		Context("with wrong credentials", func() {
			BeforeEach(func() {
				mockStore.On("CheckUserCredentials", "jane@example.com", "wrong").
					Return(store.User{}, store.ErrUserNotFound)
				_, returnedError = service.Authenticate(ctx, AuthenticateTransport{
					Email:    "jane@example.com",
					Password: "wrong",
				})
			})

			assertErrorWithCause(ErrBadCredentials)
		})

		Context("with valid credentials", func() {
			var token JwtToken

			BeforeEach(func() {
				mockStore.On("CheckUserCredentials", "jane@example.com", "secret1").
					Return(parentUser, nil)
				token, returnedError = service.Authenticate(ctx, AuthenticateTransport{
					Email:    "jane@example.com",
					Password: "secret1",
				})
			})

			It("should issue a token carrying the user id and roles", func() {
				Expect(returnedError).To(BeNil())

				parsed, err := jwt.Parse(token.Token, func(t *jwt.Token) (interface{}, error) {
					return []byte("test-secret"), nil
				})
				Expect(err).To(BeNil())
				claims := parsed.Claims.(jwt.MapClaims)
				Expect(claims["userId"]).To(Equal("u1"))
				Expect(claims["roles"]).To(ContainElement("parent"))
			})
		})
	})

	Context("Register", func() {

		Context("with an invalid email", func() {
			BeforeEach(func() {
				_, returnedError = service.Register(ctx, RegisterTransport{
					Email:    "not-an-email",
					Password: "secret1",
				})
			})

			assertErrorWithCause(ErrInvalidEmail)
		})

		Context("with a too short password", func() {
			BeforeEach(func() {
				_, returnedError = service.Register(ctx, RegisterTransport{
					Email:    "jane@example.com",
					Password: "abc",
				})
			})

			assertErrorWithCause(ErrInvalidPassword)
		})

		Context("when the email is already taken", func() {
			BeforeEach(func() {
				mockStore.On("Transact").Return(nil)
				mockStore.On("AddUser", mock.Anything).Return(store.User{}, store.ErrEmailTaken)
				_, returnedError = service.Register(ctx, RegisterTransport{
					Email:    "jane@example.com",
					Password: "secret1",
				})
			})

			assertErrorWithCause(store.ErrEmailTaken)
		})

		Context("without a child payload", func() {
			var registered RegisteredTransport

			BeforeEach(func() {
				mockStore.On("Transact").Return(nil)
				mockStore.On("AddUser", mock.MatchedBy(func(u store.User) bool {
					return u.Email.String == "jane@example.com"
				})).Return(parentUser, nil)
				mockStore.On("AddRole", store.Role{UserId: "u1", Role: store.ROLE_PARENT}).
					Return(store.Role{UserId: "u1", Role: store.ROLE_PARENT}, nil)

				registered, returnedError = service.Register(ctx, RegisterTransport{
					Name:     "Jane",
					Email:    "jane@example.com",
					Password: "secret1",
				})
			})

			It("should create the account with the parent role and issue a token", func() {
				Expect(returnedError).To(BeNil())
				Expect(registered.UserId).To(Equal("u1"))
				Expect(registered.Token).NotTo(BeEmpty())
				Expect(registered.ChildId).To(BeEmpty())
			})
		})

		Context("with a child payload", func() {
			var registered RegisteredTransport

			BeforeEach(func() {
				mockStore.On("Transact").Return(nil)
				mockStore.On("AddUser", mock.Anything).Return(parentUser, nil)
				mockStore.On("AddRole", mock.Anything).Return(store.Role{}, nil)
				linker.On("SelfServeLinkOrCreate", "u1", parents.LinkChildTransport{ExternalId: "A12-345"}).
					Return(store.Child{
						ChildId:  store.DbNullString("c1"),
						OwnerSet: store.OwnerSet{"u1"},
					}, true, nil)

				registered, returnedError = service.Register(ctx, RegisterTransport{
					Name:     "Jane",
					Email:    "jane@example.com",
					Password: "secret1",
					Child:    &parents.LinkChildTransport{ExternalId: "A12-345"},
				})
			})

			It("should link or create the child in the same registration", func() {
				Expect(returnedError).To(BeNil())
				Expect(registered.ChildId).To(Equal("c1"))
				Expect(registered.ChildCreated).To(BeTrue())
			})
		})

		Context("when linking the child fails", func() {
			BeforeEach(func() {
				mockStore.On("Transact").Return(nil)
				mockStore.On("AddUser", mock.Anything).Return(parentUser, nil)
				mockStore.On("AddRole", mock.Anything).Return(store.Role{}, nil)
				mockStore.On("DeleteUser", "u1").Return(nil)
				linker.On("SelfServeLinkOrCreate", "u1", mock.Anything).
					Return(store.Child{}, false, store.ErrExternalIdTaken)

				_, returnedError = service.Register(ctx, RegisterTransport{
					Name:     "Jane",
					Email:    "jane@example.com",
					Password: "secret1",
					Child:    &parents.LinkChildTransport{ExternalId: "A12-345"},
				})
			})

			assertErrorWithCause(store.ErrExternalIdTaken)

			It("should delete the freshly created account again", func() {
				mockStore.AssertCalled(GinkgoT(), "DeleteUser", "u1")
			})
		})
	})
})
