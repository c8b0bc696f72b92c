package llm

import (
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

// Template variables shared by the pass templates
const (
	VarInventory   = "inventory"
	VarNames       = "names"
	VarHistory     = "history"
	VarInput       = "input"
	VarUserMessage = "user_message"
	VarReply       = "reply"
	VarQuery       = "query"
	VarContext     = "context"
	VarRecent      = "recent"
)

func getReplySystemTemplate() string {
	return `You are Purple, a knowledgeable and witty assistant for Artisty, an online art gallery.
			You are like a gallery curator who knows every piece in the collection.

			INVENTORY KNOWLEDGE:
			{inventory}

			POLICY:
			- Maintain the conversation and answer general questions yourself. Do NOT call a tool for chit-chat, shipping or policy questions.
			- Only call a tool when the user's intent requires it.
			- For artwork recommendations call search_inventory with the user's request. Your final message must agree with the tool result.
			- Call quick_view only when the user explicitly asks to open, zoom or view a specific named artwork.
			- Call add_to_cart only when the user explicitly asks to add, bag or buy a specific artwork.
			- Call navigate only when the user asks to go to the cart or back home.
			- Call checkout only when the user asks to pay or proceed to checkout.
			- Use list_countries and get_artwork_details to answer factual questions about the collection.
			- NEVER claim an action is completed unless you called the tool for it.
			- Never invent artwork names. Use names exactly as they appear in the inventory.

			EXAMPLES:
			- "open Golden Gaze" → quick_view(artwork_name="Golden Gaze")
			- "add Golden Gaze to cart" → add_to_cart(artwork_name="Golden Gaze")
			- "go to cart" → navigate(destination="cart")
			- "proceed to checkout" → checkout()
			- "show me blue art" → search_inventory(query="blue")

			IF TOOLS ARE UNAVAILABLE:
			Write these markers on their own line instead of calling a tool:
			QUICK_VIEW:<artwork name>, ADD_TO_CART:<artwork name>, GO_TO_CART, GO_TO_HOME, PROCEED_TO_CHECKOUT,
			and SEARCH_TRIGGER:<one keyword> when you suggest artworks. The keyword must be a country, color, style,
			theme or artwork word that exists in the inventory above.`
}

// NewReplyTemplate builds the grounded reply prompt: system policy, memory, customer message
func NewReplyTemplate() prompt.ChatTemplate {
	return prompt.FromMessages(schema.FString,
		schema.SystemMessage(getReplySystemTemplate()),
		schema.MessagesPlaceholder(VarHistory, true),
		schema.UserMessage("{input}"),
	)
}

func getClassifyTemplate() string {
	return `You are analyzing a conversation between a user and an art gallery assistant.

			USER MESSAGE: {user_message}
			ASSISTANT RESPONSE: {reply}

			Classify the intent into one of these categories:
			- "suggestion": The assistant suggested specific artworks for the user to view or purchase
			- "general_info": The assistant provided general information, policy details, greetings or other non-product info
			- "both": The assistant both answered a question AND suggested specific artworks

			Rules:
			- If the response names specific artworks from the inventory it is likely "suggestion"
			- If it only answers questions about policies, countries or greetings without artwork names it is "general_info"
			- If it does both, classify as "both"

			Respond with ONLY the classification: suggestion, general_info, or both`
}

// NewClassifyTemplate builds the intent self-labelling prompt
func NewClassifyTemplate() prompt.ChatTemplate {
	return prompt.FromMessages(schema.FString,
		schema.UserMessage(getClassifyTemplate()),
	)
}

func getExtractTemplate() string {
	return `From the following art gallery assistant response, extract ONLY the artwork names that were suggested.

			Rules:
			- Extract only the artwork names (usually 2-3 words each)
			- Return them as a simple list, one per line
			- No prices, countries, or descriptions
			- Extract ALL suggested artworks
			- If no artworks were suggested, return "NONE"

			Response to analyze:
			{reply}

			Extracted artwork names:`
}

// NewExtractTemplate builds the artwork-name extraction prompt
func NewExtractTemplate() prompt.ChatTemplate {
	return prompt.FromMessages(schema.FString,
		schema.UserMessage(getExtractTemplate()),
	)
}

func getSearchTemplate() string {
	return `You are an art gallery store assistant. A user is asking: "{query}"

			CONVERSATION CONTEXT (most recent):
			{context}

			DIVERSITY PREFERENCE (soft): Previously recommended artworks in this session (prefer showing different ones next):
			{recent}

			COMPLETE INVENTORY (full details):
			{inventory}

			INVENTORY NAMES (canonical, exact spellings):
			{names}

			Your task:
			1. Prioritize the user's current request. Use the conversation context only if it helps.
			2. Detect explicit constraints such as country, color, theme or budget.
			3. If exact matches exist, recommend them. Otherwise recommend close alternatives (for "Eastern Europe" that could be Poland or Ukraine) and explain the connection.
			   If nothing is close, return an empty artworks array, say what we don't have and suggest what we do have.
			4. Reference only artworks you list in the "artworks" array.
			5. Names must be EXACTLY as they appear in INVENTORY NAMES.
			6. Prefer diversity across turns when the user asks to see something else.

			Return your response as valid JSON in this exact format:
			{{
				"response": "Your helpful explanation of what you found or close alternatives",
				"artworks": ["Artwork Name 1", "Artwork Name 2"],
				"count": 2
			}}

			Return up to 6 most relevant artworks.`
}

// NewSearchTemplate builds the contextual inventory search prompt
func NewSearchTemplate() prompt.ChatTemplate {
	return prompt.FromMessages(schema.FString,
		schema.SystemMessage("You are an art gallery assistant. Always respond with valid JSON."),
		schema.UserMessage(getSearchTemplate()),
	)
}
