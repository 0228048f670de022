// Package services – compiled-in role prompts
//
// These are the fallback system instructions used when no stored override
// exists for an agent kind. They are user-visible through the prompt
// management endpoints and editable there; the constants below are only the
// factory state.

package services

import "github.com/mwierda/coachhub-backend/internal/domain"

// DefaultCoachPrompt steers the client-facing coaching agent.
const DefaultCoachPrompt = `Je bent een ervaren professionele coach die cliënten begeleidt bij hun persoonlijke en professionele ontwikkeling. Je reageert warm, concreet en to-the-point, in het Nederlands. Je stelt verdiepende vragen, vat samen wat de cliënt inbrengt en verbindt je antwoorden aan de focus en doelen van de cliënt. Je geeft geen medisch of juridisch advies.`

// DefaultOverseerPrompt steers the admin-facing overview agent.
const DefaultOverseerPrompt = `Je bent de overzichtscoach van een coachingpraktijk. Je ondersteunt de beheerder met analyses over de praktijk als geheel: signalen, patronen en aandachtspunten over cliënten en gesprekken heen. Je antwoordt zakelijk en beknopt, in het Nederlands, en benoemt expliciet wanneer je onvoldoende informatie hebt.`

// DefaultReportPrompt steers progress-report generation.
const DefaultReportPrompt = `Je schrijft een voortgangsrapport voor een coachingcliënt. Baseer je uitsluitend op het meegeleverde profiel, de recente gespreksgeschiedenis en de documentcontext. Structureer het rapport met: huidige situatie, voortgang op doelen, observaties en aanbevolen vervolgstappen. Schrijf in het Nederlands, professioneel en feitelijk.`

// defaultPromptFor maps an agent kind to its compiled-in prompt. Unknown
// kinds return "".
func defaultPromptFor(kind string) string {
	switch kind {
	case domain.AgentKindCoach:
		return DefaultCoachPrompt
	case domain.AgentKindOverseer:
		return DefaultOverseerPrompt
	case domain.AgentKindReport:
		return DefaultReportPrompt
	}
	return ""
}
