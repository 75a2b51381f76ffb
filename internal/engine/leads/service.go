package leads

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"qualifyr/internal/engine/scoring"
	"qualifyr/internal/engine/webhooks"
	"qualifyr/internal/pkg/metrics"
	"qualifyr/internal/platform/audit"
	"qualifyr/internal/platform/email"
	"qualifyr/internal/platform/models"
	"qualifyr/internal/platform/repositories"
)

const (
	// AutoForwardScore is the score at which a lead is forwarded to CRM
	// webhooks automatically, once.
	AutoForwardScore = 70
	// ManualForwardScore is the minimum score for an explicit send-to-crm
	// request.
	ManualForwardScore = 50
)

// ErrScoreTooLow rejects a manual forward of a lead that has not qualified.
var ErrScoreTooLow = errors.New("lead score below forwarding threshold")

// Dispatcher is the slice of the webhook engine the lead service needs.
type Dispatcher interface {
	Dispatch(eventType, accountID string, lead *models.Lead)
}

type CaptureRequest struct {
	Email          string          `json:"email"`
	FirstName      string          `json:"first_name"`
	LastName       string          `json:"last_name"`
	Company        string          `json:"company"`
	Phone          string          `json:"phone"`
	Source         string          `json:"source"`
	InitialMessage string          `json:"initial_message"`
	Signals        scoring.Signals `json:"signals"`
}

type InboundRequest struct {
	FromEmail string `json:"from_email"`
	ToEmail   string `json:"to_email"`
	Subject   string `json:"subject"`
	Content   string `json:"content"`
	LeadName  string `json:"lead_name"`
	Company   string `json:"company"`
}

type Usage struct {
	Used  int `json:"used"`
	Limit int `json:"limit"`
}

type Service struct {
	accounts   *repositories.AccountRepository
	leads      *repositories.LeadRepository
	strategy   scoring.Strategy
	heuristic  *scoring.HeuristicStrategy
	dispatcher Dispatcher
	sender     email.Sender
	auditor    *audit.Logger
}

func NewService(accounts *repositories.AccountRepository, leadRepo *repositories.LeadRepository, strategy scoring.Strategy, dispatcher Dispatcher, sender email.Sender, auditor *audit.Logger) *Service {
	return &Service{
		accounts:   accounts,
		leads:      leadRepo,
		strategy:   strategy,
		heuristic:  scoring.NewHeuristicStrategy(),
		dispatcher: dispatcher,
		sender:     sender,
		auditor:    auditor,
	}
}

// Capture admits, scores and stores a new lead in one transaction. The
// admission score always comes from the heuristic so the request path never
// touches the network; a configured AI strategy runs afterwards in the
// background. Quota and duplicate failures roll back together with the
// usage counter.
func (s *Service) Capture(ctx context.Context, accountID string, req CaptureRequest) (*models.Lead, Usage, error) {
	tx, err := s.accounts.BeginTx()
	if err != nil {
		return nil, Usage{}, err
	}
	defer tx.Rollback()

	admitted, err := s.accounts.ConsumeQuotaTx(tx, accountID)
	if err != nil {
		return nil, Usage{}, err
	}
	if !admitted {
		used, limit, err := s.accounts.UsageTx(tx, accountID)
		if err != nil {
			return nil, Usage{}, err
		}
		status, err := s.accounts.StatusTx(tx, accountID)
		if err != nil {
			return nil, Usage{}, err
		}
		if status != "active" {
			return nil, Usage{Used: used, Limit: limit}, repositories.ErrAccountInactive
		}
		return nil, Usage{Used: used, Limit: limit}, repositories.ErrQuotaExceeded
	}

	eval := s.heuristic.Evaluate(ctx, scoring.Input{Text: req.InitialMessage, Signals: req.Signals})
	stage := scoring.DetermineStage(eval.Score, eval.ReadyForDemo)

	lead := &models.Lead{
		AccountID:          accountID,
		Email:              req.Email,
		FirstName:          req.FirstName,
		LastName:           req.LastName,
		Company:            req.Company,
		Phone:              req.Phone,
		Source:             req.Source,
		QualificationScore: eval.Score,
		QualificationStage: string(stage),
		ReadyForDemo:       eval.ReadyForDemo,
	}
	if req.InitialMessage != "" {
		lead.Conversation = models.Conversation{{
			Kind:      "inbound",
			Content:   req.InitialMessage,
			CreatedAt: time.Now().Unix(),
		}}
	}

	if err := s.leads.CreateTx(tx, lead); err != nil {
		return nil, Usage{}, err
	}

	used, limit, err := s.accounts.UsageTx(tx, accountID)
	if err != nil {
		return nil, Usage{}, err
	}

	if err := tx.Commit(); err != nil {
		return nil, Usage{}, err
	}

	metrics.LeadsCreatedTotal.Inc()
	metrics.LeadsQualifiedTotal.WithLabelValues(string(stage)).Inc()
	s.auditor.Record(accountID, "api_key", "lead.created", "lead", lead.ID, map[string]interface{}{
		"score": eval.Score,
		"stage": string(stage),
	})

	if eval.Score >= AutoForwardScore {
		s.autoForward(lead)
	}
	if s.strategy.Name() != s.heuristic.Name() {
		go s.analyze(context.Background(), lead, scoring.Input{Text: req.InitialMessage, Signals: req.Signals}, false)
	}

	return lead, Usage{Used: used, Limit: limit}, nil
}

// ProcessInbound appends a conversation message to the matching lead,
// creating the lead first (through admission) when none exists. Analysis
// runs inline for the heuristic strategy and in the background otherwise.
func (s *Service) ProcessInbound(ctx context.Context, accountID string, req InboundRequest) (*models.Lead, error) {
	lead, err := s.leads.GetByEmail(accountID, req.FromEmail)
	if err != nil {
		return nil, err
	}

	if lead == nil {
		first, last := splitName(req.LeadName)
		lead, _, err = s.Capture(ctx, accountID, CaptureRequest{
			Email:          req.FromEmail,
			FirstName:      first,
			LastName:       last,
			Company:        req.Company,
			Source:         "conversation",
			InitialMessage: req.Content,
		})
		return lead, err
	}

	lead.Conversation = append(lead.Conversation, models.Message{
		Kind:      "inbound",
		Subject:   req.Subject,
		Content:   req.Content,
		CreatedAt: time.Now().Unix(),
	})
	if err := s.leads.UpdateConversation(lead.ID, lead.Conversation); err != nil {
		return nil, err
	}

	in := scoring.Input{Text: req.Content}
	if s.strategy.Name() == s.heuristic.Name() {
		s.analyze(ctx, lead, in, true)
	} else {
		go s.analyze(context.Background(), lead, in, true)
	}

	return lead, nil
}

// SendToCRM forwards a lead on explicit request, restamping forwarded_at
// even if an automatic forward already happened.
func (s *Service) SendToCRM(ctx context.Context, accountID, leadID string) (*models.Lead, error) {
	lead, err := s.leads.GetByID(accountID, leadID)
	if err != nil || lead == nil {
		return nil, err
	}

	if lead.QualificationScore < ManualForwardScore {
		return nil, ErrScoreTooLow
	}

	now := time.Now().Unix()
	if err := s.leads.MarkForwarded(lead.ID, now); err != nil {
		return nil, err
	}
	lead.ForwardedAt = &now

	s.dispatcher.Dispatch(webhooks.EventLeadQualified, accountID, lead)
	s.auditor.Record(accountID, "api_key", "lead.forwarded", "lead", lead.ID, map[string]interface{}{
		"score":   lead.QualificationScore,
		"trigger": "manual",
	})

	return lead, nil
}

func (s *Service) Get(accountID, id string) (*models.Lead, error) {
	return s.leads.GetByID(accountID, id)
}

func (s *Service) List(accountID, stage string, limit, offset int) ([]*models.Lead, error) {
	return s.leads.List(accountID, stage, limit, offset)
}

func (s *Service) Count(accountID, stage string) (int, error) {
	return s.leads.Count(accountID, stage)
}

// analyze runs the configured strategy over the latest message and applies
// the outcome: score/stage update, optional suggested reply, auto-forward,
// hot lead alert. Never fails the caller.
func (s *Service) analyze(ctx context.Context, lead *models.Lead, in scoring.Input, appendReply bool) {
	eval := s.strategy.Evaluate(ctx, in)
	stage := scoring.DetermineStage(eval.Score, eval.ReadyForDemo)

	if err := s.leads.UpdateScore(lead.ID, eval.Score, string(stage), eval.ReadyForDemo); err != nil {
		log.Error().Err(err).Str("lead_id", lead.ID).Msg("failed to update lead score")
		return
	}
	lead.QualificationScore = eval.Score
	lead.QualificationStage = string(stage)
	lead.ReadyForDemo = eval.ReadyForDemo

	if appendReply && eval.NextQuestion != "" {
		lead.Conversation = append(lead.Conversation, models.Message{
			Kind:      "suggested_reply",
			Content:   eval.NextQuestion,
			CreatedAt: time.Now().Unix(),
		})
		if err := s.leads.UpdateConversation(lead.ID, lead.Conversation); err != nil {
			log.Error().Err(err).Str("lead_id", lead.ID).Msg("failed to append suggested reply")
		}
	}

	metrics.LeadsQualifiedTotal.WithLabelValues(string(stage)).Inc()
	s.auditor.Record(lead.AccountID, s.strategy.Name(), "lead.qualified", "lead", lead.ID, map[string]interface{}{
		"score": eval.Score,
		"stage": string(stage),
	})

	if eval.Score >= AutoForwardScore {
		s.autoForward(lead)
	}
	if stage == scoring.StageHotLead {
		go s.notifyHotLead(lead)
	}
}

// autoForward forwards at most once per lead; MarkForwardedOnce loses the
// race for every caller but the first.
func (s *Service) autoForward(lead *models.Lead) {
	now := time.Now().Unix()
	claimed, err := s.leads.MarkForwardedOnce(lead.ID, now)
	if err != nil {
		log.Error().Err(err).Str("lead_id", lead.ID).Msg("failed to mark lead as forwarded")
		return
	}
	if !claimed {
		return
	}
	lead.ForwardedAt = &now

	s.dispatcher.Dispatch(webhooks.EventLeadQualified, lead.AccountID, lead)
	s.auditor.Record(lead.AccountID, "system", "lead.forwarded", "lead", lead.ID, map[string]interface{}{
		"score":   lead.QualificationScore,
		"trigger": "auto",
	})
}

func (s *Service) notifyHotLead(lead *models.Lead) {
	account, err := s.accounts.GetByID(lead.AccountID)
	if err != nil || account == nil {
		log.Error().Err(err).Str("account_id", lead.AccountID).Msg("failed to load account for hot lead alert")
		return
	}

	msg, err := email.HotLeadMessage(account.Email, lead)
	if err != nil {
		log.Error().Err(err).Msg("failed to render hot lead alert")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.sender.Send(ctx, msg); err != nil {
		metrics.EmailsSentTotal.WithLabelValues("hot_lead", "error").Inc()
		log.Error().Err(err).Str("lead_id", lead.ID).Msg("failed to send hot lead alert")
		return
	}
	metrics.EmailsSentTotal.WithLabelValues("hot_lead", "sent").Inc()
}

func splitName(name string) (first, last string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}
