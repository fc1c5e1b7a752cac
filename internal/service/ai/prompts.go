package ai

// Sentinel is the literal marker the model is instructed to emit once every
// required lead field has been collected. Its presence anywhere in a reply
// moves the conversation to submission.
const Sentinel = "[CREATE_LEAD]"

const systemPrompt = `You are a helpful CRM assistant. Engage in natural conversation with the user.
Your goal is to collect the following information:
- Name
- Email
- Phone (optional)
- Requirements

Once you have all required information (name, email, requirements), confirm with the user and end your response with the exact phrase: ` + Sentinel + `
If information is missing, politely ask for it in a natural way.
Maintain context from previous messages.`

const extractionPrompt = `From the following conversation, extract:
- Name
- Email
- Phone (if provided)
- Requirements

Respond in JSON format: {"name": "...", "email": "...", "phone": "...", "requirements": "..."}

Conversation:
`
