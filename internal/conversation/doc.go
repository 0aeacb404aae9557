// Package conversation drives one chat turn through the model and the tool
// registry.
//
// A turn starts by building the prompt and then alternates between asking
// the model for a reply and executing the tool calls it emits:
//
//	BUILDING_PROMPT -> AWAITING_MODEL -> (EXECUTING_TOOLS <-> AWAITING_MODEL)* -> DONE | FAILED
//
// Tool calls run one after another in the order the model emitted them and
// every call yields exactly one tool message, whether it succeeded, failed
// to parse or failed in the collaborator. Tool failures are classified into
// corrective text and fed back to the model; only model gateway failures end
// a turn with an error. After MaxRounds tool rounds the turn ends with a
// fixed fallback reply.
//
// Tools are executed at least once: nothing is retried, and a cancelled turn
// does not roll back calls that already ran.
package conversation
