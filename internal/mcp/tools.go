package mcp

import "github.com/mark3labs/mcp-go/mcp"

var sendMessageTool = mcp.NewTool("send_message",
	mcp.WithDescription("Send a customer message to the pneumatics sales assistant and get its reply, stage and gathered specification."),
	mcp.WithString("session_id",
		mcp.Required(),
		mcp.Description("Conversation id; reuse it to continue a conversation"),
	),
	mcp.WithString("message",
		mcp.Required(),
		mcp.Description("Customer message, usually Turkish"),
	),
)

var searchCatalogTool = mcp.NewTool("search_catalog",
	mcp.WithDescription("Search products by name words or code. Returns codes, names, live stock and unit prices."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Product words, e.g. 'kör tapa' or 'valf bobini'"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of products to return (default 10)"),
	),
)

var strokeOptionsTool = mcp.NewTool("stroke_options",
	mcp.WithDescription("List the cylinder strokes in stock for a bore diameter, with aggregate stock per stroke."),
	mcp.WithNumber("diameter",
		mcp.Required(),
		mcp.Description("Bore diameter in millimetres"),
	),
)

var getSessionTool = mcp.NewTool("get_session",
	mcp.WithDescription("Show the state of a conversation: stage, specification, pending order and recent messages."),
	mcp.WithString("session_id",
		mcp.Required(),
		mcp.Description("Conversation id"),
	),
)

var resetSessionTool = mcp.NewTool("reset_session",
	mcp.WithDescription("Forget a conversation entirely."),
	mcp.WithString("session_id",
		mcp.Required(),
		mcp.Description("Conversation id"),
	),
)
