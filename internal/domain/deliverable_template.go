package domain

// Deliverable structure templates, keyed by request type. They are handed to
// the synthesizer as guidance for the expected document shape; the final
// deliverable is whatever markdown the synthesizer produces, untouched.
var deliverableTemplates = map[RequestType]string{
	RequestRoadmap: `# {title}

## Executive Summary
{executive_summary}

## Roadmap Overview
{overview}

## Phases

{phases}

## Key Considerations
{considerations}

## Next Steps
{next_steps}

---
*Prepared by the QuietDesk Team*
`,
	RequestAnalysis: `# {title}

## Executive Summary
{executive_summary}

## Analysis

{analysis}

## Key Findings
{findings}

## Recommendations
{recommendations}

---
*Prepared by the QuietDesk Team*
`,
	RequestAudit: `# {title}

## Executive Summary
{executive_summary}

## Audit Scope
{scope}

## Findings

{findings}

## Issues Identified
{issues}

## Recommendations
{recommendations}

## Priority Actions
{priority_actions}

---
*Prepared by the QuietDesk Team*
`,
	RequestReview: `# {title}

## Overview
{overview}

## Feedback

{feedback}

## Strengths
{strengths}

## Areas for Improvement
{improvements}

## Recommendations
{recommendations}

---
*Prepared by the QuietDesk Team*
`,
	RequestResearch: `# {title}

## Executive Summary
{executive_summary}

## Research Objectives
{objectives}

## Findings

{findings}

## Analysis
{analysis}

## Conclusions
{conclusions}

## Recommendations
{recommendations}

---
*Prepared by the QuietDesk Team*
`,
	RequestCustom: `# {title}

## Summary
{summary}

## Details

{details}

## Recommendations
{recommendations}

---
*Prepared by the QuietDesk Team*
`,
}

// DeliverableTemplate returns the structure guidance for a request type,
// falling back to the custom template for unknown types.
func DeliverableTemplate(t RequestType) string {
	if tpl, ok := deliverableTemplates[t]; ok {
		return tpl
	}
	return deliverableTemplates[RequestCustom]
}
