package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ramandhika/telegram-repo-watcher/github"
	"github.com/ramandhika/telegram-repo-watcher/lib"
	"github.com/ramandhika/telegram-repo-watcher/telegram"
)

const helpText = "Hi! I watch GitHub repositories for new commits. Commands:\n" +
	"/add <owner/repo> [branch] - Watch a repository.\n" +
	"/list - Show your watched repositories.\n" +
	"/delete <id> - Stop watching a repository.\n" +
	"/login <username> <token> - Log in with a GitHub token to watch private repositories."

func (b *Bot) handleMessage(ctx context.Context, msg *telegram.Message) {
	fields := strings.Fields(msg.Text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return
	}

	// "/add@botname" and "/add" are the same command.
	command, _, _ := strings.Cut(fields[0], "@")
	args := fields[1:]
	chatID := msg.Chat.ID

	var reply string
	switch command {
	case "/start", "/help":
		reply = helpText
	case "/add":
		reply = b.addCommand(ctx, chatID, args)
	case "/list":
		reply = b.listCommand(ctx, chatID)
	case "/delete":
		reply = b.deleteCommand(ctx, chatID, args)
	case "/login":
		reply = b.loginCommand(ctx, chatID, args)
	default:
		return
	}

	if err := b.tg.SendMessage(ctx, chatID, reply); err != nil {
		b.log.Sugar().Warnw("Failed to send reply", "chat_id", chatID, "command", command, "err", err)
	}
}

func (b *Bot) addCommand(ctx context.Context, chatID int64, args []string) string {
	if len(args) < 1 || !strings.Contains(args[0], "/") {
		return "Usage: `/add <owner/repo> [branch]`. Example: `/add ramandhika/telegram-repo-watcher`"
	}

	owner, repo, _ := strings.Cut(args[0], "/")
	if owner == "" || repo == "" {
		return "Invalid owner or repository name."
	}

	branch := ""
	if len(args) > 1 {
		branch = args[1]
	}

	sub, err := b.svc.Subscribe(ctx, chatID, owner, repo, branch)
	switch {
	case errors.Is(err, lib.ErrAlreadyExists):
		return fmt.Sprintf("*%s/%s* is already on your watch list.", owner, repo)
	case err != nil:
		var fetchErr *github.FetchError
		if errors.As(err, &fetchErr) {
			return fmt.Sprintf(
				"Could not fetch the latest commit for *%s/%s@%s*. Check the repository and branch names; for private repositories, log in first with /login.",
				owner, repo, fetchErr.Ref,
			)
		}
		b.log.Sugar().Errorw("Failed to add subscription", "chat_id", chatID, "err", err)
		return "Something went wrong while adding the repository."
	}

	return fmt.Sprintf("Now watching *%s/%s* (branch: %s).", owner, repo, sub.Branch)
}

func (b *Bot) listCommand(ctx context.Context, chatID int64) string {
	subs, err := b.svc.ListSubscriptions(ctx, chatID)
	if err != nil {
		b.log.Sugar().Errorw("Failed to list subscriptions", "chat_id", chatID, "err", err)
		return "Something went wrong while listing your repositories."
	}
	if len(subs) == 0 {
		return "You are not watching any repositories yet. Use /add to start."
	}

	var sb strings.Builder
	sb.WriteString("Repositories you are watching:\n\n")
	for _, sub := range subs {
		lastSHA := "N/A"
		if sub.LastCommitSHA.Valid {
			lastSHA = sub.LastCommitSHA.String
			if len(lastSHA) > 7 {
				lastSHA = lastSHA[:7]
			}
		}
		fmt.Fprintf(&sb, "*ID:* `%d`\n", sub.ID)
		fmt.Fprintf(&sb, "*Repo:* `%s/%s`\n", sub.Owner, sub.Repo)
		fmt.Fprintf(&sb, "*Branch:* `%s`\n", sub.Branch)
		fmt.Fprintf(&sb, "*Last SHA:* `%s`\n", lastSHA)
		sb.WriteString("---\n")
	}
	return sb.String()
}

func (b *Bot) deleteCommand(ctx context.Context, chatID int64, args []string) string {
	if len(args) != 1 {
		return "Usage: `/delete <id>`. Use /list to see ids."
	}
	subID, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return "Usage: `/delete <id>`. Use /list to see ids."
	}

	err = b.svc.Unsubscribe(ctx, chatID, uint(subID))
	switch {
	case errors.Is(err, lib.ErrNotFound):
		return fmt.Sprintf("No watched repository with id `%d` was found.", subID)
	case err != nil:
		b.log.Sugar().Errorw("Failed to delete subscription", "chat_id", chatID, "err", err)
		return "Something went wrong while deleting the repository."
	}
	return fmt.Sprintf("Repository with id `%d` is no longer watched.", subID)
}

func (b *Bot) loginCommand(ctx context.Context, chatID int64, args []string) string {
	if len(args) != 2 {
		return "Usage: `/login <github_username> <personal_access_token>`"
	}
	username, token := args[0], args[1]

	if err := b.svc.Login(ctx, chatID, username, token); err != nil {
		b.log.Sugar().Infow("Login failed", "chat_id", chatID, "err", err)
		return "Login failed. Check your username and personal access token (it needs the `repo` scope)."
	}
	return fmt.Sprintf("Logged in as *%s*. You can now watch private repositories.", username)
}
