//go:build unit

package api_test

import (
	"net/http"
	"testing"

	"biblio/internal/handler/api"
	resdto "biblio/internal/handler/dto/response"
	"biblio/internal/usecase/commands"
	"biblio/internal/usecase/queries"
	"biblio/tests/common/builder"
	"biblio/tests/common/httptest"
	"biblio/tests/common/testutil"
	commandsmock "biblio/tests/mock/commands"
	queriesmock "biblio/tests/mock/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type ReservationHandlerTestSuite struct {
	suite.Suite
	router        *gin.Engine
	mockCtrl      *gomock.Controller
	mockReserve   *commandsmock.MockReservationCommands
	mockCancel    *commandsmock.MockCancellationCommands
	mockApproval  *commandsmock.MockApprovalCommands
	mockQueries   *queriesmock.MockReservationQueries
	handler       *api.ReservationHandler
	currentUserID uuid.UUID
}

func (s *ReservationHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	s.mockCtrl = gomock.NewController(s.T())
	s.mockReserve = commandsmock.NewMockReservationCommands(s.mockCtrl)
	s.mockCancel = commandsmock.NewMockCancellationCommands(s.mockCtrl)
	s.mockApproval = commandsmock.NewMockApprovalCommands(s.mockCtrl)
	s.mockQueries = queriesmock.NewMockReservationQueries(s.mockCtrl)
	s.handler = api.NewReservationHandler(s.mockReserve, s.mockCancel, s.mockApproval, s.mockQueries)
	s.currentUserID = uuid.New()

	// Stand-in for the auth middleware.
	s.router.Use(func(c *gin.Context) {
		c.Set("user_id", s.currentUserID)
		c.Next()
	})

	s.router.POST("/reservations", s.handler.CreateReservation)
	s.router.GET("/reservations", s.handler.GetUserReservations)
	s.router.GET("/reservations/slots", s.handler.GetUserSlots)
	s.router.GET("/reservations/:id", s.handler.GetReservation)
	s.router.DELETE("/reservations/:resourceId", s.handler.CancelReservation)
	s.router.PATCH("/reservations/:id/state", s.handler.UpdateReservationState)
}

func (s *ReservationHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestReservationHandlerSuite(t *testing.T) {
	suite.Run(t, new(ReservationHandlerTestSuite))
}

func (s *ReservationHandlerTestSuite) TestCreateReservation() {
	url := "/reservations"
	b := builder.NewReservationBuilder().WithUserID(s.currentUserID)
	reqBody := b.BuildDTO()
	view := b.BuildView()

	s.Run("success: returns 201 Created", func() {
		s.mockReserve.EXPECT().
			Reserve(gomock.Any(), s.currentUserID, reqBody.ResourceID, int32(1)).
			Return(&commands.ReserveResult{
				Reservation:     view,
				SlotIndex:       1,
				AvailableCopies: 2,
			}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "")

		var response resdto.CreateReservationResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusCreated, &response)
		s.Equal(int32(1), response.SlotIndex)
		s.Equal(int32(2), response.AvailableCopies)
		s.Equal(view.ID, response.Reservation.ID)
	})

	s.Run("error: 400 Bad Request on malformed body", func() {
		body := testutil.DtoMap(s.T(), reqBody, testutil.Field("resourceId", "not-a-uuid"))
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, body, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid request format")
	})

	s.Run("error: 404 when resource is unknown", func() {
		s.mockReserve.EXPECT().
			Reserve(gomock.Any(), s.currentUserID, reqBody.ResourceID, int32(1)).
			Return(nil, commands.ErrResourceNotFound).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusNotFound, "Resource not found")
	})

	s.Run("error: 409 when no copies remain", func() {
		s.mockReserve.EXPECT().
			Reserve(gomock.Any(), s.currentUserID, reqBody.ResourceID, int32(1)).
			Return(nil, commands.ErrUnavailable).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusConflict, "No copies available")
	})

	s.Run("error: 409 on concurrent slot conflict", func() {
		s.mockReserve.EXPECT().
			Reserve(gomock.Any(), s.currentUserID, reqBody.ResourceID, int32(1)).
			Return(nil, commands.ErrSlotConflict).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusConflict, "Concurrent reservation")
	})

	s.Run("error: 422 when quota is exhausted", func() {
		s.mockReserve.EXPECT().
			Reserve(gomock.Any(), s.currentUserID, reqBody.ResourceID, int32(1)).
			Return(nil, commands.ErrQuotaExceeded).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusUnprocessableEntity, "quota exceeded")
	})
}

func (s *ReservationHandlerTestSuite) TestCancelReservation() {
	resourceID := uuid.New()
	url := "/reservations/" + resourceID.String()

	s.Run("success: returns 200 OK", func() {
		restored := int32(3)
		s.mockCancel.EXPECT().
			Cancel(gomock.Any(), s.currentUserID, resourceID).
			Return(&commands.CancelResult{Cancelled: true, AvailableCopies: &restored}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodDelete, url, nil, "")

		var response resdto.CancelReservationResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &response)
		s.True(response.Cancelled)
		s.Require().NotNil(response.AvailableCopies)
		s.Equal(int32(3), *response.AvailableCopies)
	})

	s.Run("success: repeated cancel reports no-op", func() {
		s.mockCancel.EXPECT().
			Cancel(gomock.Any(), s.currentUserID, resourceID).
			Return(&commands.CancelResult{Cancelled: false}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodDelete, url, nil, "")

		var response resdto.CancelReservationResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &response)
		s.False(response.Cancelled)
		s.Nil(response.AvailableCopies)
	})

	s.Run("error: 400 Bad Request on malformed resource id", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodDelete, "/reservations/not-a-uuid", nil, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid resource ID")
	})
}

func (s *ReservationHandlerTestSuite) TestGetReservation() {
	view := builder.NewReservationBuilder().WithUserID(s.currentUserID).BuildView()

	s.Run("success: returns the owner's reservation", func() {
		s.mockQueries.EXPECT().
			GetByID(gomock.Any(), s.currentUserID, view.ID).
			Return(view, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/reservations/"+view.ID.String(), nil, "")

		var response resdto.ReservationResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &response)
		s.Equal(view.ID, response.ID)
	})

	s.Run("error: 404 hides other users' reservations", func() {
		otherID := uuid.New()
		s.mockQueries.EXPECT().
			GetByID(gomock.Any(), s.currentUserID, otherID).
			Return(nil, queries.ErrForbidden).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/reservations/"+otherID.String(), nil, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusNotFound, "Reservation not found")
	})
}

func (s *ReservationHandlerTestSuite) TestUpdateReservationState() {
	view := builder.NewReservationBuilder().WithState("approved").BuildView()
	url := "/reservations/" + view.ID.String() + "/state"

	s.Run("success: approves a requested reservation", func() {
		s.mockApproval.EXPECT().Approve(gomock.Any(), view.ID).Return(nil).Times(1)
		s.mockQueries.EXPECT().GetByIDSystem(gomock.Any(), view.ID).Return(view, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPatch, url, map[string]any{"state": "approved"}, "")

		var response resdto.ReservationResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &response)
		s.Equal("approved", response.State)
	})

	s.Run("success: rejects a requested reservation", func() {
		s.mockApproval.EXPECT().Reject(gomock.Any(), view.ID).Return(nil).Times(1)
		s.mockQueries.EXPECT().GetByIDSystem(gomock.Any(), view.ID).Return(view, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPatch, url, map[string]any{"state": "rejected"}, "")
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, nil)
	})

	s.Run("error: 400 on an unsupported state", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPatch, url, map[string]any{"state": "archived"}, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid request format")
	})

	s.Run("error: 409 on an illegal transition", func() {
		s.mockApproval.EXPECT().Approve(gomock.Any(), view.ID).Return(commands.ErrIllegalTransition).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPatch, url, map[string]any{"state": "approved"}, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusConflict, "transition")
	})
}

func (s *ReservationHandlerTestSuite) TestGetUserSlots() {
	s.Run("success: returns the occupied slot table", func() {
		slots := []*queries.SlotView{
			{SlotIndex: 1, ResourceID: uuid.New(), ResourceTitle: "Distributed Systems", Quantity: 1},
			{SlotIndex: 3, ResourceID: uuid.New(), ResourceTitle: "Compilers", Quantity: 2},
		}
		s.mockQueries.EXPECT().
			ListSlots(gomock.Any(), s.currentUserID).
			Return(slots, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/reservations/slots", nil, "")

		var response []*resdto.SlotResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &response)
		s.Require().Len(response, 2)
		s.Equal(int32(1), response[0].SlotIndex)
		s.Equal(int32(3), response[1].SlotIndex)
	})

	s.Run("success: empty table for a user with no reservations", func() {
		s.mockQueries.EXPECT().
			ListSlots(gomock.Any(), s.currentUserID).
			Return([]*queries.SlotView{}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/reservations/slots", nil, "")

		var response []*resdto.SlotResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &response)
		s.Empty(response)
	})
}
