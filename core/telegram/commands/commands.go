// Package commands describes slash commands registered with the bot.
package commands

import tele "gopkg.in/telebot.v4"

// Command is a registered slash command.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	// AdminOnly commands are gated by telegram.admin_id and never listed in the menu.
	AdminOnly bool
	// Hidden commands work but are left out of the bot menu.
	Hidden  bool
	Aliases []string
}
