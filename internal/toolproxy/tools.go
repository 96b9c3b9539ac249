package toolproxy

import "github.com/mark3labs/mcp-go/mcp"

// MCP tool definitions. Descriptions are what the model reads when choosing a tool.

var ToolUserProfile = mcp.NewTool("get_user_profile",
	mcp.WithDescription(
		"Fetch the bank profile for a user. Never fails: if the user service is unavailable "+
			"a placeholder profile is returned with an 'error' field describing the failure."),
	mcp.WithString("user_id",
		mcp.Required(),
		mcp.Description("The user's identifier")),
)

var ToolTransactions = mcp.NewTool("get_transactions",
	mcp.WithDescription(
		"List a user's recent card transactions, newest first. Never fails: if the transaction "+
			"history service is unavailable two sample records are returned with an 'error' field."),
	mcp.WithString("user_id",
		mcp.Required(),
		mcp.Description("The user's identifier")),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of transactions to return (default 25, max 200)")),
)

var ToolFlag = mcp.NewTool("flag_transaction",
	mcp.WithDescription(
		"Send a transaction to the human review queue with the reason it looks suspicious."),
	mcp.WithString("txn_id",
		mcp.Required(),
		mcp.Description("The transaction identifier")),
	mcp.WithString("reason",
		mcp.Required(),
		mcp.Description("Why the transaction needs review")),
)
