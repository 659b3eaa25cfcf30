package ai

// RelevancePrompt frames a single trace relevance judgement. The first
// verb expects the user query, the second the formatted context block
// (trace path, citations, intents) of one requirement trace.
const RelevancePrompt = `
# Task Context
You are an assistant reviewing certification requirements for relevance
to an engineering question. You will be given one requirement trace from
a regulation corpus, including its position in the document hierarchy,
its cross references, and the recorded intent behind the requirement.

# Engineering Question
%s

# Requirement Trace
%s

# Detailed Task Description & Rules
- Judge whether this requirement trace is relevant to the engineering question.
- Relevant means an engineer answering the question must consider this requirement, its guidance material, or its cited references.
- A trace is not relevant merely because it shares terminology with the question; the regulated behavior itself must bear on the question.
- Use the intent records to understand what failure conditions or behaviors the requirement addresses.
- Give a short rationale grounded in the trace content, not in general knowledge.

# Output Formatting
Return a JSON object with this structure:
{
  "relevant": <true or false>,
  "rationale": "<one to three sentences>"
}
`

// RelevanceSystemPrompt is prepended to every relevance request.
const RelevanceSystemPrompt = `You are a precise certification engineering assistant. You answer strictly from the provided requirement trace and never invent regulation content.`
