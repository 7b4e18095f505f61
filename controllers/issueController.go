package controllers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"citycare-be/apperr"
	"citycare-be/lifecycle"
	"citycare-be/mailer"
	"citycare-be/middlewares"
	"citycare-be/models"
	"citycare-be/repository"
	"citycare-be/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	msgInvalidIssueID  = "Invalid issue ID"
	msgIssueNotFound   = "Issue not found"
	msgMissingFields   = "Please provide all required fields"
	msgUnsupportedType = "Only image files (jpg, jpeg, png, gif) are allowed!"
	msgInvalidBody     = "Invalid request body"
)

type IssueController struct {
	issues repository.IssueStore
	users  repository.UserStore
	images storage.ImageStore
	mail   Notifier
	policy lifecycle.StatusPolicy
	logger *zap.Logger
	now    func() time.Time
}

func NewIssueController(issues repository.IssueStore, users repository.UserStore, images storage.ImageStore, mail Notifier, policy lifecycle.StatusPolicy, logger *zap.Logger) *IssueController {
	return &IssueController{
		issues: issues,
		users:  users,
		images: images,
		mail:   mail,
		policy: policy,
		logger: logger,
		now:    time.Now,
	}
}

// GetIssues lists every issue, newest first, with the reporter populated.
func (h *IssueController) GetIssues(c *gin.Context) {
	filter := repository.IssueFilter{Search: strings.TrimSpace(c.Query("search"))}
	if category := c.Query("category"); category != "" && category != "all" {
		filter.Category = category
	}
	if status := c.Query("status"); status != "" && status != "all" {
		filter.Status = models.IssueStatus(status)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	issues, err := h.issues.Find(ctx, filter)
	if err != nil {
		respondError(c, h.logger, apperr.Server(err))
		return
	}
	views, err := populateIssues(ctx, h.users, issues)
	if err != nil {
		respondError(c, h.logger, apperr.Server(err))
		return
	}
	c.JSON(http.StatusOK, views)
}

// CreateIssue handles the multipart issue report
func (h *IssueController) CreateIssue(c *gin.Context) {
	user := middlewares.CurrentUser(c)

	fields := map[string]string{}
	for _, name := range []string{"title", "description", "category", "city", "state"} {
		fields[name] = strings.TrimSpace(c.PostForm(name))
		if fields[name] == "" {
			respondError(c, h.logger, apperr.BadRequest(msgMissingFields))
			return
		}
	}
	lat, latErr := strconv.ParseFloat(strings.TrimSpace(c.PostForm("latitude")), 64)
	lng, lngErr := strconv.ParseFloat(strings.TrimSpace(c.PostForm("longitude")), 64)
	if latErr != nil || lngErr != nil {
		respondError(c, h.logger, apperr.BadRequest(msgMissingFields))
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		respondError(c, h.logger, apperr.BadRequest(msgMissingFields))
		return
	}
	if !storage.AllowedImage(file.Filename) {
		respondError(c, h.logger, apperr.BadRequest(msgUnsupportedType))
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	imageURL, err := h.images.Save(ctx, file)
	if err != nil {
		respondError(c, h.logger, imageError(err))
		return
	}

	issue := &models.Issue{
		User:        user.ID,
		Title:       fields["title"],
		Description: fields["description"],
		Category:    fields["category"],
		City:        fields["city"],
		State:       fields["state"],
		Location:    models.Location{Latitude: lat, Longitude: lng},
		ImageURL:    absoluteURL(c, imageURL),
		Status:      models.StatusOpen,
	}
	if err := h.issues.Create(ctx, issue); err != nil {
		respondError(c, h.logger, apperr.Server(err))
		return
	}

	msg, err := mailer.IssueReportedMessage(user.Email, issue.Title)
	if err != nil {
		h.logger.Error("render issue email", zap.Error(err), zap.String("request_id", middlewares.GetRequestID(c)))
	} else {
		msg.RequestID = middlewares.GetRequestID(c)
		h.mail.Deliver(ctx, msg)
	}

	c.JSON(http.StatusCreated, issue)
}

// GetMyIssues lists the caller's own issues, newest first.
func (h *IssueController) GetMyIssues(c *gin.Context) {
	user := middlewares.CurrentUser(c)

	ctx, cancel := requestContext(c)
	defer cancel()

	issues, err := h.issues.Find(ctx, repository.IssueFilter{Owner: &user.ID})
	if err != nil {
		respondError(c, h.logger, apperr.Server(err))
		return
	}
	c.JSON(http.StatusOK, issues)
}

// GetVolunteerRequests lists issues with a pending volunteer request.
func (h *IssueController) GetVolunteerRequests(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	issues, err := h.issues.Find(ctx, repository.IssueFilter{VolunteerRequest: models.VolunteerPending})
	if err != nil {
		respondError(c, h.logger, apperr.Server(err))
		return
	}
	views, err := populateIssues(ctx, h.users, issues)
	if err != nil {
		respondError(c, h.logger, apperr.Server(err))
		return
	}
	c.JSON(http.StatusOK, views)
}

func (h *IssueController) GetIssue(c *gin.Context) {
	id, err := idParam(c, "id", msgInvalidIssueID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	issue, err := h.issues.FindByID(ctx, id)
	if err != nil {
		respondError(c, h.logger, lookupError(err))
		return
	}
	view, err := populateIssue(ctx, h.users, issue)
	if err != nil {
		respondError(c, h.logger, apperr.Server(err))
		return
	}
	c.JSON(http.StatusOK, view)
}

// UpdateStatus applies an admin status change allowed by the configured policy.
func (h *IssueController) UpdateStatus(c *gin.Context) {
	id, err := idParam(c, "id", msgInvalidIssueID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	var input struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, h.logger, apperr.BadRequest("Invalid status provided"))
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	issue, err := h.issues.FindByID(ctx, id)
	if err != nil {
		respondError(c, h.logger, lookupError(err))
		return
	}

	actor := lifecycle.ActorOf(middlewares.CurrentUser(c))
	to, err := h.policy.Transition(issue, models.IssueStatus(strings.TrimSpace(input.Status)), actor)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if to == issue.Status {
		c.JSON(http.StatusOK, issue)
		return
	}

	updated, err := h.issues.SetStatus(ctx, id, issue.Status, to)
	if err != nil {
		if errors.Is(err, repository.ErrConditionFailed) {
			respondError(c, h.logger, apperr.Conflict("Issue status changed concurrently"))
			return
		}
		respondError(c, h.logger, apperr.Server(err))
		return
	}
	c.JSON(http.StatusOK, updated)
}

// AddFeedback records the owner's one-time rating of a resolved issue.
func (h *IssueController) AddFeedback(c *gin.Context) {
	id, err := idParam(c, "id", msgInvalidIssueID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	var input struct {
		Rating   int    `json:"rating"`
		Feedback string `json:"feedback"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, h.logger, apperr.BadRequest("Rating must be a whole number between 1 and 5"))
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	issue, err := h.issues.FindByID(ctx, id)
	if err != nil {
		respondError(c, h.logger, lookupError(err))
		return
	}

	actor := lifecycle.ActorOf(middlewares.CurrentUser(c))
	fb, err := lifecycle.SubmitFeedback(issue, lifecycle.Feedback{Rating: input.Rating, Text: input.Feedback}, actor)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	updated, err := h.issues.RecordFeedback(ctx, id, fb.Rating, fb.Text)
	if errors.Is(err, repository.ErrConditionFailed) {
		// Lost a race: report what a fresh check says.
		err = apperr.Conflict("Feedback has already been submitted for this issue")
		if current, ferr := h.issues.FindByID(ctx, id); ferr == nil {
			if _, cerr := lifecycle.SubmitFeedback(current, fb, actor); cerr != nil {
				err = cerr
			}
		}
	}
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// RequestVolunteer lets the reporter offer to fix their own issue.
func (h *IssueController) RequestVolunteer(c *gin.Context) {
	id, err := idParam(c, "id", msgInvalidIssueID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	issue, err := h.issues.FindByID(ctx, id)
	if err != nil {
		respondError(c, h.logger, lookupError(err))
		return
	}
	if _, err := lifecycle.RequestVolunteer(issue, lifecycle.ActorOf(middlewares.CurrentUser(c))); err != nil {
		respondError(c, h.logger, err)
		return
	}

	if _, err := h.issues.RequestVolunteer(ctx, id); err != nil {
		if errors.Is(err, repository.ErrConditionFailed) {
			respondError(c, h.logger, apperr.Conflict("A volunteer request has already been made"))
			return
		}
		respondError(c, h.logger, apperr.Server(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Volunteer request submitted successfully."})
}

// ManageVolunteerRequest approves or rejects a pending request.
func (h *IssueController) ManageVolunteerRequest(c *gin.Context) {
	var input struct {
		Decision string `json:"decision"`
	}
	if err := bindOptionalJSON(c, &input); err != nil {
		respondError(c, h.logger, err)
		return
	}
	if _, err := lifecycle.ParseDecision(input.Decision); err != nil {
		respondError(c, h.logger, err)
		return
	}
	id, err := idParam(c, "id", msgInvalidIssueID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	issue, err := h.issues.FindByID(ctx, id)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		respondError(c, h.logger, apperr.Server(err))
		return
	}

	decision, err := lifecycle.DecideVolunteer(issue, input.Decision, lifecycle.ActorOf(middlewares.CurrentUser(c)))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	updated, err := h.issues.DecideVolunteer(ctx, id, decision.State, decision.Volunteer)
	if err != nil {
		if errors.Is(err, repository.ErrConditionFailed) {
			respondError(c, h.logger, apperr.NotFound("No pending volunteer request"))
			return
		}
		respondError(c, h.logger, apperr.Server(err))
		return
	}
	c.JSON(http.StatusOK, updated)
}

// AddAuthorityUpdate appends an admin progress note, optionally with a photo.
func (h *IssueController) AddAuthorityUpdate(c *gin.Context) {
	id, err := idParam(c, "id", msgInvalidIssueID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	text := c.PostForm("text")
	if c.ContentType() == gin.MIMEJSON {
		var input struct {
			Text string `json:"text"`
		}
		if err := bindOptionalJSON(c, &input); err != nil {
			respondError(c, h.logger, err)
			return
		}
		text = input.Text
	}

	actor := lifecycle.ActorOf(middlewares.CurrentUser(c))
	update, err := lifecycle.NewAuthorityUpdate(actor, text, "", h.now())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if _, err := h.issues.FindByID(ctx, id); err != nil {
		respondError(c, h.logger, lookupError(err))
		return
	}

	if file, ferr := c.FormFile("image"); ferr == nil {
		if !storage.AllowedImage(file.Filename) {
			respondError(c, h.logger, apperr.BadRequest(msgUnsupportedType))
			return
		}
		imageURL, err := h.images.Save(ctx, file)
		if err != nil {
			respondError(c, h.logger, imageError(err))
			return
		}
		update.ImageURL = absoluteURL(c, imageURL)
	}

	updated, err := h.issues.AppendUpdate(ctx, id, update)
	if err != nil {
		respondError(c, h.logger, lookupError(err))
		return
	}
	view, err := populateIssue(ctx, h.users, updated)
	if err != nil {
		respondError(c, h.logger, apperr.Server(err))
		return
	}
	c.JSON(http.StatusCreated, view)
}

// bindOptionalJSON treats an empty body as empty input; anything else that
// fails to decode is a 400.
func bindOptionalJSON(c *gin.Context, obj any) error {
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		return apperr.BadRequest(msgInvalidBody)
	}
	return nil
}

func lookupError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound(msgIssueNotFound)
	}
	return apperr.Server(err)
}

func imageError(err error) error {
	if errors.Is(err, storage.ErrUnsupportedImage) {
		return apperr.BadRequest(msgUnsupportedType)
	}
	return apperr.Server(err)
}
