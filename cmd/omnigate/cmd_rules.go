package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/omnigate/omnigate/internal/access"
	"github.com/omnigate/omnigate/internal/config"
	"github.com/omnigate/omnigate/internal/consts"
)

var rulesHwd = &RulesRunner{}

type RulesRunner struct{}

func (r *RulesRunner) cmd() *cli.Command {
	scopeFlag := &cli.StringFlag{
		Name:  "scope",
		Usage: "Instance name the rule applies to (empty for global)",
	}

	return &cli.Command{
		Name:  "rules",
		Usage: "Manage admission rules for inbound senders",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Add an allow or block rule",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "pattern",
						Usage: "Identifier or prefix pattern, e.g. \"+1234567890\" or \"+1234*\"",
					},
					&cli.StringFlag{
						Name:  "type",
						Usage: "Rule type: allow or block",
					},
					scopeFlag,
				},
				Action: r.add,
			},
			{
				Name:  "remove",
				Usage: "Remove a rule by ID",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "id",
						Usage: "Rule ID as shown by \"rules list\"",
					},
				},
				Action: r.remove,
			},
			{
				Name:   "list",
				Usage:  "List all configured rules",
				Action: r.list,
			},
			{
				Name:  "check",
				Usage: "Evaluate whether an identifier would be admitted",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "identifier",
						Usage: "Sender identifier to test",
					},
					scopeFlag,
				},
				Action: r.check,
			},
		},
	}
}

// cache opens the rule cache on the configured rules file. The gateway
// reloads the file on its maintenance schedule, so edits made here reach a
// running instance without a restart.
func (r *RulesRunner) cache() *access.Cache {
	rulesFile := consts.DefaultRulesPath()
	if cfg, err := config.Load(consts.DefaultConfigPath()); err == nil && cfg.Access.RulesFile != "" {
		rulesFile = cfg.Access.RulesFile
	}
	return access.NewCache(access.NewFileStore(rulesFile))
}

func (r *RulesRunner) add(ctx context.Context, cmd *cli.Command) error {
	pattern := strings.TrimSpace(cmd.String("pattern"))
	if pattern == "" {
		return errors.New("--pattern is required")
	}
	ruleType := access.RuleType(strings.ToLower(strings.TrimSpace(cmd.String("type"))))

	rule, err := r.cache().AddRule(ctx, access.Rule{
		Pattern: pattern,
		Type:    ruleType,
		Scope:   strings.TrimSpace(cmd.String("scope")),
	})
	if err != nil {
		return fmt.Errorf("add rule: %w", err)
	}

	fmt.Printf("Added %s rule %s (pattern %q", rule.Type, rule.ID, rule.Pattern)
	if rule.Scope != "" {
		fmt.Printf(", scope %s", rule.Scope)
	}
	fmt.Println(")")
	return nil
}

func (r *RulesRunner) remove(ctx context.Context, cmd *cli.Command) error {
	id := strings.TrimSpace(cmd.String("id"))
	if id == "" {
		return errors.New("--id is required")
	}

	if err := r.cache().RemoveRule(ctx, id); err != nil {
		return fmt.Errorf("remove rule: %w", err)
	}
	fmt.Printf("Removed rule %s\n", id)
	return nil
}

func (r *RulesRunner) list(ctx context.Context, _ *cli.Command) error {
	rules, err := r.cache().Rules(ctx)
	if err != nil {
		return fmt.Errorf("load rules: %w", err)
	}
	if len(rules) == 0 {
		fmt.Println("No rules configured. All senders are admitted by default.")
		return nil
	}

	fmt.Printf("%-38s %-6s %-24s %s\n", "ID", "TYPE", "PATTERN", "SCOPE")
	for _, rule := range rules {
		scope := rule.Scope
		if scope == "" {
			scope = "(global)"
		}
		fmt.Printf("%-38s %-6s %-24s %s\n", rule.ID, rule.Type, rule.Pattern, scope)
	}
	return nil
}

func (r *RulesRunner) check(ctx context.Context, cmd *cli.Command) error {
	identifier := strings.TrimSpace(cmd.String("identifier"))
	if identifier == "" {
		return errors.New("--identifier is required")
	}
	scope := strings.TrimSpace(cmd.String("scope"))

	if r.cache().Check(ctx, identifier, scope) {
		fmt.Printf("%s would be ADMITTED\n", identifier)
	} else {
		fmt.Printf("%s would be BLOCKED\n", identifier)
	}
	return nil
}
