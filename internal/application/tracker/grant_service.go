package tracker

import (
	"context"

	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/identity"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/shared"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/tracker"
	"go.uber.org/zap"
)

// GrantService manages the grant, topic and subtopic tree and its
// summaries
type GrantService struct {
	hooks
	grants    tracker.GrantRepository
	topics    tracker.TopicRepository
	subtopics tracker.SubtopicRepository
	tickets   tracker.TicketRepository
}

// NewGrantService creates a new GrantService
func NewGrantService(
	grants tracker.GrantRepository,
	topics tracker.TopicRepository,
	subtopics tracker.SubtopicRepository,
	tickets tracker.TicketRepository,
	settings Settings,
	logger *zap.Logger,
) *GrantService {
	return &GrantService{
		hooks:     newHooks(settings, logger),
		grants:    grants,
		topics:    topics,
		subtopics: subtopics,
		tickets:   tickets,
	}
}

// =============================================================================
// Grants
// =============================================================================

// ListGrants returns all grants
func (s *GrantService) ListGrants(ctx context.Context) ([]GrantResponse, error) {
	grants, err := s.grants.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	topics, err := s.topics.FindAll(ctx, tracker.TopicFilter{})
	if err != nil {
		return nil, err
	}
	out := make([]GrantResponse, 0, len(grants))
	for _, g := range grants {
		out = append(out, toGrantResponse(g, topics))
	}
	return out, nil
}

// GetGrant returns a grant with the summary of its tickets
func (s *GrantService) GetGrant(ctx context.Context, id int64) (*GrantResponse, error) {
	g, err := s.grants.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.grantDetail(ctx, g)
}

// GetGrantBySlug returns a grant by slug
func (s *GrantService) GetGrantBySlug(ctx context.Context, slug string) (*GrantResponse, error) {
	g, err := s.grants.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	return s.grantDetail(ctx, g)
}

// CreateGrant creates a grant
func (s *GrantService) CreateGrant(ctx context.Context, user *identity.User, req GrantRequest) (*GrantResponse, error) {
	if err := requireStaff(user); err != nil {
		return nil, err
	}
	if _, err := s.grants.FindBySlug(ctx, req.Slug); err == nil {
		return nil, shared.ErrAlreadyExists.WithMessage("Grant with this slug already exists")
	} else if !shared.IsNotFound(err) {
		return nil, err
	}
	g, err := tracker.NewGrant(req.FullName, req.ShortName, req.Slug, req.Description)
	if err != nil {
		return nil, err
	}
	if err := s.grants.Create(ctx, g); err != nil {
		return nil, err
	}
	s.logger.Info("Grant created", zap.Int64("grant_id", g.ID), zap.String("slug", g.Slug))
	resp := toGrantResponse(g, nil)
	return &resp, nil
}

// UpdateGrant replaces the grant fields
func (s *GrantService) UpdateGrant(ctx context.Context, user *identity.User, id int64, req GrantRequest) (*GrantResponse, error) {
	if err := requireStaff(user); err != nil {
		return nil, err
	}
	g, err := s.grants.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Slug != g.Slug {
		if other, err := s.grants.FindBySlug(ctx, req.Slug); err == nil && other.ID != g.ID {
			return nil, shared.ErrAlreadyExists.WithMessage("Grant with this slug already exists")
		} else if err != nil && !shared.IsNotFound(err) {
			return nil, err
		}
	}
	if err := g.Update(req.FullName, req.ShortName, req.Slug, req.Description); err != nil {
		return nil, err
	}
	if err := s.grants.Update(ctx, g); err != nil {
		return nil, err
	}
	s.invalidate(ctx, true)
	return s.grantDetail(ctx, g)
}

// DeleteGrant removes a grant without topics
func (s *GrantService) DeleteGrant(ctx context.Context, user *identity.User, id int64) error {
	if err := requireStaff(user); err != nil {
		return err
	}
	grantID := id
	topics, err := s.topics.FindAll(ctx, tracker.TopicFilter{GrantID: &grantID})
	if err != nil {
		return err
	}
	if len(topics) > 0 {
		return shared.ErrConflict.WithMessage("Grant still has topics")
	}
	if err := s.grants.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Grant deleted", zap.Int64("grant_id", id))
	return nil
}

func (s *GrantService) grantDetail(ctx context.Context, g *tracker.Grant) (*GrantResponse, error) {
	grantID := g.ID
	topics, err := s.topics.FindAll(ctx, tracker.TopicFilter{GrantID: &grantID})
	if err != nil {
		return nil, err
	}
	tickets, err := s.tickets.FindAllLoaded(ctx, tracker.TicketFilter{GrantID: &grantID})
	if err != nil {
		return nil, err
	}
	resp := toGrantResponse(g, topics)
	resp.Summary = tracker.AggregateTickets(tickets)
	return &resp, nil
}

func toGrantResponse(g *tracker.Grant, topics []*tracker.Topic) GrantResponse {
	return GrantResponse{
		ID:             g.ID,
		FullName:       g.FullName,
		ShortName:      g.ShortName,
		Slug:           g.Slug,
		Description:    g.Description,
		OpenForTickets: g.OpenForTickets(topics),
	}
}

// =============================================================================
// Topics
// =============================================================================

// ListTopics returns topics with their subtopics
func (s *GrantService) ListTopics(ctx context.Context, filter TopicListFilter) ([]TopicResponse, error) {
	topics, err := s.topics.FindAll(ctx, tracker.TopicFilter{GrantID: filter.GrantID, OpenOnly: filter.OpenOnly})
	if err != nil {
		return nil, err
	}
	out := make([]TopicResponse, 0, len(topics))
	for _, t := range topics {
		out = append(out, ToTopicResponse(t))
	}
	return out, nil
}

// GetTopic returns a topic with the summary of its tickets
func (s *GrantService) GetTopic(ctx context.Context, id int64) (*TopicResponse, error) {
	t, err := s.topics.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	tickets, err := s.tickets.FindAllLoaded(ctx, tracker.TicketFilter{TopicIDs: []int64{t.ID}})
	if err != nil {
		return nil, err
	}
	resp := ToTopicResponse(t)
	resp.Summary = tracker.AggregateTickets(tickets)
	return &resp, nil
}

// CreateTopic creates a topic under a grant
func (s *GrantService) CreateTopic(ctx context.Context, user *identity.User, req TopicRequest) (*TopicResponse, error) {
	if err := requireStaff(user); err != nil {
		return nil, err
	}
	g, err := s.grants.FindByID(ctx, req.GrantID)
	if shared.IsNotFound(err) {
		return nil, tracker.ErrInvalidTopic.WithMessage("Grant does not exist")
	}
	if err != nil {
		return nil, err
	}
	if err := s.ensureUniqueTopic(ctx, g.ID, req.Name, 0); err != nil {
		return nil, err
	}
	t, err := tracker.NewTopic(g.ID, req.Name)
	if err != nil {
		return nil, err
	}
	applyTopicRequest(t, req)
	if err := s.topics.Create(ctx, t); err != nil {
		return nil, err
	}
	if len(req.AdminIDs) > 0 {
		if err := s.topics.SetAdmins(ctx, t.ID, req.AdminIDs); err != nil {
			return nil, err
		}
	}
	s.logger.Info("Topic created", zap.Int64("topic_id", t.ID), zap.Int64("grant_id", g.ID))
	return s.GetTopic(ctx, t.ID)
}

// UpdateTopic replaces the topic fields and admins
func (s *GrantService) UpdateTopic(ctx context.Context, user *identity.User, id int64, req TopicRequest) (*TopicResponse, error) {
	if err := requireStaff(user); err != nil {
		return nil, err
	}
	t, err := s.topics.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.GrantID != t.GrantID {
		if _, err := s.grants.FindByID(ctx, req.GrantID); err != nil {
			if shared.IsNotFound(err) {
				return nil, tracker.ErrInvalidTopic.WithMessage("Grant does not exist")
			}
			return nil, err
		}
	}
	if err := s.ensureUniqueTopic(ctx, req.GrantID, req.Name, t.ID); err != nil {
		return nil, err
	}
	if err := t.Rename(req.Name); err != nil {
		return nil, err
	}
	t.GrantID = req.GrantID
	applyTopicRequest(t, req)
	if err := s.topics.Update(ctx, t); err != nil {
		return nil, err
	}
	if req.AdminIDs != nil {
		if err := s.topics.SetAdmins(ctx, t.ID, req.AdminIDs); err != nil {
			return nil, err
		}
	}
	s.invalidate(ctx, true)
	return s.GetTopic(ctx, t.ID)
}

// DeleteTopic removes a topic without tickets
func (s *GrantService) DeleteTopic(ctx context.Context, user *identity.User, id int64) error {
	if err := requireStaff(user); err != nil {
		return err
	}
	_, total, err := s.tickets.FindAll(ctx, tracker.TicketFilter{TopicIDs: []int64{id}, PageSize: 1})
	if err != nil {
		return err
	}
	if total > 0 {
		return shared.ErrConflict.WithMessage("Topic still has tickets")
	}
	if err := s.topics.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Topic deleted", zap.Int64("topic_id", id))
	return nil
}

func (s *GrantService) ensureUniqueTopic(ctx context.Context, grantID int64, name string, selfID int64) error {
	other, err := s.topics.FindByName(ctx, grantID, name)
	if shared.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if other.ID != selfID {
		return shared.ErrAlreadyExists.WithMessage("Topic with this name already exists in the grant")
	}
	return nil
}

func applyTopicRequest(t *tracker.Topic, req TopicRequest) {
	set := func(dst *bool, v *bool) {
		if v != nil {
			*dst = *v
		}
	}
	set(&t.OpenForTickets, req.OpenForTickets)
	set(&t.TicketMedia, req.TicketMedia)
	set(&t.TicketExpenses, req.TicketExpenses)
	set(&t.TicketPreexpenses, req.TicketPreexpenses)
	set(&t.TicketStatutoryDeclaration, req.TicketStatutoryDeclaration)
	set(&t.TicketCommentsPublic, req.TicketCommentsPublic)
	t.Description = req.Description
	t.FormDescription = req.FormDescription
}

// =============================================================================
// Subtopics
// =============================================================================

// ListSubtopics returns subtopics, optionally of one topic
func (s *GrantService) ListSubtopics(ctx context.Context, topicID *int64) ([]SubtopicResponse, error) {
	subs, err := s.subtopics.FindAll(ctx, topicID)
	if err != nil {
		return nil, err
	}
	out := make([]SubtopicResponse, 0, len(subs))
	for _, sub := range subs {
		out = append(out, ToSubtopicResponse(sub))
	}
	return out, nil
}

// GetSubtopic returns a subtopic with the summary of its tickets
func (s *GrantService) GetSubtopic(ctx context.Context, id int64) (*SubtopicResponse, error) {
	sub, err := s.subtopics.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	subID := sub.ID
	tickets, err := s.tickets.FindAllLoaded(ctx, tracker.TicketFilter{SubtopicID: &subID})
	if err != nil {
		return nil, err
	}
	resp := ToSubtopicResponse(sub)
	resp.Summary = tracker.AggregateTickets(tickets)
	return &resp, nil
}

// CreateSubtopic creates a subtopic
func (s *GrantService) CreateSubtopic(ctx context.Context, user *identity.User, req SubtopicRequest) (*SubtopicResponse, error) {
	if err := requireStaff(user); err != nil {
		return nil, err
	}
	if _, err := s.topics.FindByID(ctx, req.TopicID); err != nil {
		if shared.IsNotFound(err) {
			return nil, tracker.ErrInvalidTopic.WithMessage("Topic does not exist")
		}
		return nil, err
	}
	sub, err := tracker.NewSubtopic(req.TopicID, req.Name)
	if err != nil {
		return nil, err
	}
	sub.Description = req.Description
	sub.FormDescription = req.FormDescription
	if err := s.subtopics.Create(ctx, sub); err != nil {
		return nil, err
	}
	resp := ToSubtopicResponse(sub)
	return &resp, nil
}

// UpdateSubtopic replaces the subtopic fields
func (s *GrantService) UpdateSubtopic(ctx context.Context, user *identity.User, id int64, req SubtopicRequest) (*SubtopicResponse, error) {
	if err := requireStaff(user); err != nil {
		return nil, err
	}
	sub, err := s.subtopics.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.TopicID != sub.TopicID {
		return nil, tracker.ErrInvalidTopic.WithMessage("Subtopic cannot move to another topic")
	}
	if err := sub.Rename(req.Name); err != nil {
		return nil, err
	}
	sub.Description = req.Description
	sub.FormDescription = req.FormDescription
	if err := s.subtopics.Update(ctx, sub); err != nil {
		return nil, err
	}
	s.invalidate(ctx, true)
	resp := ToSubtopicResponse(sub)
	return &resp, nil
}

// DeleteSubtopic removes a subtopic without tickets
func (s *GrantService) DeleteSubtopic(ctx context.Context, user *identity.User, id int64) error {
	if err := requireStaff(user); err != nil {
		return err
	}
	subID := id
	_, total, err := s.tickets.FindAll(ctx, tracker.TicketFilter{SubtopicID: &subID, PageSize: 1})
	if err != nil {
		return err
	}
	if total > 0 {
		return shared.ErrConflict.WithMessage("Subtopic still has tickets")
	}
	return s.subtopics.Delete(ctx, id)
}

// =============================================================================
// Finance
// =============================================================================

// Finance builds the paid/unpaid matrix of every grant and topic. Sums of
// tickets sharing a payment cluster are marked fuzzy.
func (s *GrantService) Finance(ctx context.Context) (*FinanceResponse, error) {
	grants, err := s.grants.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	topics, err := s.topics.FindAll(ctx, tracker.TopicFilter{})
	if err != nil {
		return nil, err
	}
	tickets, err := s.tickets.FindAllLoaded(ctx, tracker.TicketFilter{})
	if err != nil {
		return nil, err
	}

	clusterSize := map[int64]int{}
	for _, t := range tickets {
		if t.ClusterID != nil {
			clusterSize[*t.ClusterID]++
		}
	}
	byTopic := map[int64][]*tracker.Ticket{}
	fuzzyTopic := map[int64]bool{}
	for _, t := range tickets {
		byTopic[t.TopicID] = append(byTopic[t.TopicID], t)
		if t.ClusterID != nil && clusterSize[*t.ClusterID] > 1 {
			fuzzyTopic[t.TopicID] = true
		}
	}

	resp := &FinanceResponse{Grants: make([]GrantFinanceResponse, 0, len(grants))}
	for _, g := range grants {
		var grantTopics []*tracker.Topic
		for _, t := range topics {
			if t.GrantID == g.ID {
				grantTopics = append(grantTopics, t)
			}
		}
		gf := tracker.BuildGrantFinance(g, grantTopics, byTopic)
		block := GrantFinanceResponse{
			GrantID:   g.ID,
			GrantName: g.FullName,
			Topics:    make([]TopicFinanceRow, 0, len(gf.Topics)),
			Finance:   gf.Finance,
		}
		for _, tf := range gf.Topics {
			if fuzzyTopic[tf.Topic.ID] {
				tf.Finance.Fuzzy = true
				gf.Finance.Fuzzy = true
				resp.HaveFuzzy = true
			}
			block.Topics = append(block.Topics, TopicFinanceRow{
				TopicID:   tf.Topic.ID,
				TopicName: tf.Topic.Name,
				Finance:   tf.Finance,
			})
		}
		resp.Grants = append(resp.Grants, block)
	}
	return resp, nil
}

func requireStaff(user *identity.User) error {
	if err := requireUser(user); err != nil {
		return err
	}
	if !isStaff(user) {
		return shared.ErrForbidden.WithMessage("Only staff can change grants and topics")
	}
	return nil
}
