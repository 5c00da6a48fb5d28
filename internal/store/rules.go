package store

import (
	"context"
	"fmt"
	"time"
)

// Rule kinds for automatic project tagging.
const (
	RuleOrganizer    = "organizer"
	RuleTitlePattern = "title_pattern"
	RuleRepository   = "repository"
)

// Rule auto-assigns untagged records to a project when its match value hits
// the record's organizer, title, or repository path.
type Rule struct {
	ID         int64     `json:"id"`
	ProjectID  int64     `json:"project_id"`
	RuleType   string    `json:"rule_type"`
	MatchValue string    `json:"match_value"`
	CreatedAt  time.Time `json:"created_at"`
}

func validRuleType(t string) bool {
	return t == RuleOrganizer || t == RuleTitlePattern || t == RuleRepository
}

func (s *Store) CreateRule(ctx context.Context, projectID int64, ruleType, matchValue string) (int64, error) {
	if !validRuleType(ruleType) {
		return 0, fmt.Errorf("unknown rule type %q", ruleType)
	}
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO project_rules (project_id, rule_type, match_value, created_at)
		VALUES ($1, $2, $3, now())
		RETURNING id`,
		projectID, ruleType, matchValue,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create rule: %w", err)
	}
	return id, nil
}

func (s *Store) UpdateRule(ctx context.Context, id int64, ruleType, matchValue string) error {
	if !validRuleType(ruleType) {
		return fmt.Errorf("unknown rule type %q", ruleType)
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE project_rules SET rule_type = $2, match_value = $3 WHERE id = $1`,
		id, ruleType, matchValue,
	)
	if err != nil {
		return fmt.Errorf("update rule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("rule %d not found", id)
	}
	return nil
}

func (s *Store) DeleteRule(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM project_rules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("rule %d not found", id)
	}
	return nil
}

// ListRules fetches every rule, or only one project's when projectID is
// non-nil.
func (s *Store) ListRules(ctx context.Context, projectID *int64) ([]Rule, error) {
	query := `SELECT id, project_id, rule_type, match_value, created_at FROM project_rules`
	args := []any{}
	if projectID != nil {
		query += ` WHERE project_id = $1`
		args = append(args, *projectID)
	}
	query += ` ORDER BY id`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	defer rows.Close()

	var rules []Rule
	for rows.Next() {
		var r Rule
		if err := rows.Scan(&r.ID, &r.ProjectID, &r.RuleType, &r.MatchValue, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan rule row: %w", err)
		}
		rules = append(rules, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rule rows: %w", err)
	}
	return rules, nil
}

// ApplyRules tags every untagged record matched by a rule. Manual
// assignments are never overwritten. Returns the number of records tagged.
func (s *Store) ApplyRules(ctx context.Context) (int, error) {
	rules, err := s.ListRules(ctx, nil)
	if err != nil {
		return 0, err
	}

	tagged := 0
	for _, rule := range rules {
		var n int64
		var err error
		switch rule.RuleType {
		case RuleOrganizer:
			n, err = s.applyRule(ctx, rule.ProjectID,
				`source_kind = 'calendar' AND payload->>'organizer' = $2`, rule.MatchValue)
		case RuleTitlePattern:
			n, err = s.applyRule(ctx, rule.ProjectID,
				`title ILIKE '%' || $2 || '%'`, rule.MatchValue)
		case RuleRepository:
			n, err = s.applyRule(ctx, rule.ProjectID,
				`payload->>'repository_path' = $2`, rule.MatchValue)
		default:
			continue
		}
		if err != nil {
			return tagged, fmt.Errorf("apply rule %d: %w", rule.ID, err)
		}
		tagged += int(n)
	}
	return tagged, nil
}

func (s *Store) applyRule(ctx context.Context, projectID int64, predicate, matchValue string) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE activity_records SET project_id = $1, updated_at = now()
		WHERE project_id IS NULL AND `+predicate,
		projectID, matchValue,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
