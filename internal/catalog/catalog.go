// Package catalog ships the versioned default action plan and reconciles it
// against stored, user-modified action state.
package catalog

import "github.com/rmcgowen/haven/internal/domain"

// Version is the catalog version recorded alongside seeded actions. Bump it
// whenever the built-in items below change so stored plans are migrated.
const Version = 1

// Default returns the built-in action plan in catalog order.
func Default() []domain.ActionItem {
	return []domain.ActionItem{
		{
			ID:          "soar-worker",
			Priority:    1,
			Title:       "Call 211 for a SOAR Worker",
			Description: "A SOAR worker is a trained specialist who helps people with disabilities get SSI approved faster. This is the most important first step.",
			Phone:       "211",
			Script: `"Hi, my name is Jennifer. I'm 66 years old and I have a leg amputation. I'm currently staying at Frontline Response shelter.

I need help getting SSI benefits and I heard about SOAR workers who can help with this. Can you connect me with a SOAR program in Atlanta?"

If they ask questions:
- Yes, I have my ID, SSN card, and birth certificate
- I've been disabled for about 2 years
- I'm currently homeless but in a shelter`,
			BringList: []string{"ID", "SSN Card", "Birth Certificate"},
			Status:    domain.ActionPending,
		},
		{
			ID:          "grady-card",
			Priority:    2,
			Title:       "Get a Grady Card",
			Description: "A Grady Card gives you free or low-cost medical care at Grady Hospital. Essential for your health needs.",
			Phone:       "4046161000",
			Script: `"Hi, I'd like to apply for a Grady Card for free medical services.

I'm 66 years old, I'm homeless, and I have a leg amputation. I'm staying at Frontline Response shelter.

What do I need to bring to apply?"

Usually you'll need:
- Photo ID
- Proof of income (or statement that you have no income)
- Proof of address (shelter letter)`,
			BringList: []string{"Photo ID", "Proof of address (shelter letter)", "Proof of income or statement of no income"},
			Status:    domain.ActionPending,
		},
		{
			ID:          "presumptive-ssi",
			Priority:    3,
			Title:       "Ask About Presumptive SSI",
			Description: "Because you have a leg amputation, you may qualify for immediate SSI payments while your full application is processed.",
			Phone:       "18007721213",
			Script: `"Hi, my name is Jennifer. I'm calling to ask about Presumptive SSI.

I'm 66 years old and I had a leg amputation about 2 years ago. I'm currently homeless.

I heard that people with amputations can get emergency SSI payments right away while their application is being reviewed. Is that right? How do I apply for that?"`,
			BringList: []string{"SSN", "ID", "Medical records if available"},
			Status:    domain.ActionPending,
		},
		{
			ID:          "snap-application",
			Priority:    4,
			Title:       "Apply for SNAP (Food Stamps)",
			Description: "SNAP provides money for food. You may qualify for expedited (fast) processing because you're homeless.",
			Script: `Go to: gateway.ga.gov or call 877-423-4746

When applying, mention:
- You're homeless (expedited processing)
- You have no income
- You're 66 years old
- You have a disability

They should process it within 7 days for expedited cases.`,
			BringList: []string{"ID", "SSN Card", "Shelter address for mail"},
			Status:    domain.ActionPending,
		},
		{
			ID:          "mercy-care",
			Priority:    5,
			Title:       "Contact Mercy Care",
			Description: "Mercy Care provides free healthcare and has people who can help navigate benefits. Good backup for SOAR help.",
			Phone:       "6788438600",
			Script: `"Hi, I'd like to become a patient at Mercy Care.

I'm 66 years old, homeless, and I have a leg amputation. I don't have insurance.

I also need help applying for SSI and Medicaid. Do you have case managers or navigators who can help with that?"`,
			BringList: []string{"ID", "Any medical records you have"},
			Status:    domain.ActionPending,
		},
		{
			ID:          "coordinated-entry",
			Priority:    6,
			Title:       "Enter Coordinated Entry",
			Description: "Coordinated Entry is the system for getting housing vouchers. You need to be in this system to get permanent housing.",
			Phone:       "211",
			Script: `"Hi, I need to enter Coordinated Entry for housing.

I'm 66 years old, I have a leg amputation, and I'm currently homeless staying at Frontline Response shelter.

How do I get assessed for housing assistance?"

They will schedule a VI-SPDAT assessment - this determines your priority for housing.`,
			BringList: []string{"ID", "Information about how long you've been homeless"},
			Status:    domain.ActionPending,
		},
		{
			ID:          "ss-retirement",
			Priority:    7,
			Title:       "Check on SS Retirement",
			Description: "At 66, you may already qualify for Social Security retirement benefits, separate from disability.",
			Phone:       "18007721213",
			Script: `"Hi, I'm calling to check if I qualify for Social Security retirement benefits.

I'm 66 years old. I want to know:
- Do I have enough work credits for retirement benefits?
- If yes, how much would I get?
- Can I apply for retirement while also applying for disability?"`,
			BringList: []string{"SSN", "ID"},
			Status:    domain.ActionPending,
		},
		{
			ID:          "section-8",
			Priority:    8,
			Title:       "Look into Section 8 Housing",
			Description: "Section 8 vouchers help pay rent. Waitlists are long but worth getting on.",
			Script: `Call Atlanta Housing: 404-817-7477

Ask: "Is the Section 8 waitlist open? How do I apply?"

Note: Waitlists are often closed but check periodically. Also ask about:
- Project-based vouchers (no waitlist)
- Special homeless programs
- Senior housing options`,
			BringList: []string{"ID", "SSN", "Proof of income"},
			Status:    domain.ActionPending,
		},
		{
			ID:          "follow-up",
			Priority:    9,
			Title:       "Follow Up on Applications",
			Description: "Check on the status of any applications you've submitted.",
			Script: `When calling to follow up, say:

"Hi, I'm calling to check on the status of my application.

My name is Jennifer [Last Name].
My case number is [if you have one].
I applied on [date if you remember]."

Write down:
- Who you spoke with
- What they said
- Any next steps
- When to call back`,
			BringList: []string{"Any case numbers or reference numbers"},
			Status:    domain.ActionPending,
		},
	}
}
