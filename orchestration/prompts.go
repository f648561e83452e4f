// Prompts and progress messages.
//
// Information Hiding:
// - Search query keywords per language
// - System prompts for the outline planner and section writer
// - Wording of every GenerationStep shown to the user

package orchestration

import (
	"fmt"
	"strings"

	"github.com/richinex/omnireport/model"
)

// Language selects the prompt and progress-message catalog.
type Language string

const (
	English Language = "en"
	Chinese Language = "zh"
)

// ParseLanguage accepts "en"/"english" and "zh"/"chinese" (case-insensitive).
func ParseLanguage(s string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "en", "english":
		return English, nil
	case "zh", "zh-cn", "chinese":
		return Chinese, nil
	default:
		return "", fmt.Errorf("unsupported report language: %q", s)
	}
}

// catalog holds everything language-dependent. Format verbs are documented
// per field.
type catalog struct {
	outlineQuery  string // subject
	chapterQuery  string // subject, chapter
	outlineSystem string
	outlineUser   string // subject, context
	outlineLine   string // title, content
	sectionSystem string // {subject} {chapterTitle} {searchContext} placeholders
	sectionUser   string // chapter
	sectionSource string // title, content
	fallbackTitle string // subject

	stepAnalyzing   string // subject
	stepSourcesSeen string // count
	stepPlanning    string
	stepOutlineDone string // count
	stepResearching string // index, total, chapter
	stepWriting     string // chapter
	stepSectionDone string // chapter
	stepComplete    string
	stepFailed      string // kind, message
}

func catalogFor(lang Language) *catalog {
	if lang == Chinese {
		return &zhCatalog
	}
	return &enCatalog
}

// sectionPrompt fills the writer template in a single pass so placeholder
// text inside search content is never substituted.
func (c *catalog) sectionPrompt(subject, chapter, searchContext string) string {
	return strings.NewReplacer(
		"{subject}", subject,
		"{chapterTitle}", chapter,
		"{searchContext}", searchContext,
	).Replace(c.sectionSystem)
}

// outlineContext renders planner search results one per line.
func (c *catalog) outlineContext(results []model.SearchResult) string {
	lines := make([]string, len(results))
	for i, r := range results {
		lines[i] = fmt.Sprintf(c.outlineLine, r.Title, r.Content)
	}
	return strings.Join(lines, "\n")
}

// chapterContext renders chapter search results as blank-line separated
// source blocks.
func (c *catalog) chapterContext(results []model.SearchResult) string {
	blocks := make([]string, len(results))
	for i, r := range results {
		blocks[i] = fmt.Sprintf(c.sectionSource, r.Title, r.Content)
	}
	return strings.Join(blocks, "\n\n")
}

var enCatalog = catalog{
	outlineQuery:  "%s public opinion background controversy latest developments",
	chapterQuery:  "%s %s detailed data viewpoints in-depth analysis",
	outlineUser:   "Subject: %s\n\nInitial Search Context:\n%s",
	outlineLine:   "- %s: %s",
	sectionUser:   "Write the chapter %q.",
	sectionSource: "Source (%s): %s",
	fallbackTitle: "%s In-Depth Public Opinion Report",
	outlineSystem: `You are a senior chief public-opinion analyst.
Your task is to produce a rigorous, detailed outline for an in-depth public-opinion research report, based on the user's subject and the search context.

Requirements:
1. Professional structure. Follow the standard chapter taxonomy of a professional public-opinion report:
   - Executive Summary: overview of the event and key indicators.
   - Event Timeline: origin, course and turning points.
   - Propagation Analysis: media attention, platform distribution, trend of interest.
   - Core Opinions: media, opinion leaders and the public compared.
   - Sentiment Analysis: share of positive and negative sentiment, main complaints.
   - Deep Analysis & Risk Assessment: underlying causes and latent risks.
   - Suggestions & Conclusion: professional recommendations.
2. Richness. Design chapters in detail so the report has depth and breadth.

Return a single JSON object in this shape:
{
  "title": "Full report title",
  "chapters": [
    "1. Executive Summary",
    "2. Event Timeline and Key Milestones",
    ...
  ]
}
Return JSON only, without Markdown code fences, so it can be parsed directly.`,
	sectionSystem: `You are a professional public-opinion analyst writing one chapter of the research report "{subject}".

Current chapter: {chapterTitle}

Web search material:
{searchContext}

Writing guidelines:
1. Tone: objective, rational and incisive professional analysis.
2. Depth:
   - Make full use of the search material; cite concrete figures, dates and media sources.
   - Avoid generalities; offer real insight.
   - Where data is available, explain what it means and how it trends.
3. Format: Markdown.
   - Use ## for sub-headings.
   - Bold key points.
   - Attribute sources in the text or after the paragraph.
4. Focus: never write meta-commentary such as "this chapter will discuss"; go straight into the analysis.

Output the Markdown content directly.`,

	stepAnalyzing:   "Analyzing subject: %q...",
	stepSourcesSeen: "Found %d core sources, building the analysis framework...",
	stepPlanning:    "Planning the report chapter structure...",
	stepOutlineDone: "Outline ready: %d chapters. Starting in-depth research...",
	stepResearching: "[%d/%d] Researching: %s",
	stepWriting:     "Writing: %s...",
	stepSectionDone: "Completed: %s",
	stepComplete:    "All analysis complete. The report has been generated.",
	stepFailed:      "Error [%s]: %s",
}

var zhCatalog = catalog{
	outlineQuery:  "%s 舆情 事件背景 争议焦点 最新进展",
	chapterQuery:  "%s %s 详细数据 观点 深度分析",
	outlineUser:   "Subject: %s\n\nInitial Search Context:\n%s",
	outlineLine:   "- %s: %s",
	sectionUser:   "撰写章节 \"%s\"。",
	sectionSource: "来源 (%s): %s",
	fallbackTitle: "%s 深度舆情研究报告",
	outlineSystem: `你是一位资深的舆情首席分析师。
你的任务是根据用户的主题和搜索背景，生成一份结构严谨、内容详实的《深度舆情研究报告》大纲。

**核心要求**：
1. **专业结构**：必须严格遵循专业舆情报告的章节范式。建议包含以下维度：
   - **舆情综述** (Executive Summary)：事件概要与关键指标。
   - **事件回顾与脉络** (Event Timeline)：起因、经过、发酵节点。
   - **传播态势分析** (Propagation Analysis)：媒体关注度、传播平台分布、热度走势。
   - **核心观点梳理** (Core Opinions)：媒体观点、意见领袖观点、网民观点对比。
   - **情感倾向分析** (Sentiment Analysis)：正负面情绪占比及主要槽点/痛点。
   - **深度研判与风险评估** (Deep Analysis & Risk Assessment)：透过现象看本质，潜在风险点。
   - **应对建议与结论** (Suggestions & Conclusion)：专业的处置建议。
2. **丰富度**：章节设计要细致，确保报告内容的深度和广度。

请返回一个纯 JSON 对象，格式如下：
{
  "title": "报告完整标题",
  "chapters": [
    "1. 舆情综述",
    "2. 事件回顾与关键节点",
    ...
  ]
}
**注意**：只返回 JSON，不要包含 Markdown 格式，确保能被直接解析。`,
	sectionSystem: `你是一位专业的舆情分析师，正在撰写《{subject}》研究报告的特定章节。

当前章节：{chapterTitle}

网络搜索素材：
{searchContext}

**撰写指南**：
1. **语言风格**：使用客观、理性、犀利的专业分析语言。
2. **深度要求**：
   - 充分利用提供的搜索素材，引用具体的数据、时间、媒体来源。
   - 拒绝泛泛而谈，要有深入的洞察。
   - 如有数据支持，请在文字中详细描述数据的含义和趋势。
3. **格式**：使用 Markdown 排版。
   - 使用 ## 作为子标题划分层级。
   - 重点内容可以加粗。
   - 引用来源请在文中或段落后标注。
4. **内容专注**：不要提及“本章将讨论...”等元语言，直接进入分析内容。

请直接输出 Markdown 内容。`,

	stepAnalyzing:   "正在分析主题: \"%s\"...",
	stepSourcesSeen: "已找到 %d 个核心来源，正在构建分析框架...",
	stepPlanning:    "正在规划专业报告章节架构...",
	stepOutlineDone: "架构已确立: 包含 %d 个专业板块。开始深度调研...",
	stepResearching: "[%d/%d] 正在调研: %s",
	stepWriting:     "正在撰写: %s...",
	stepSectionDone: "已完成: %s",
	stepComplete:    "全部分析完成。报告已生成。",
	stepFailed:      "错误 [%s]: %s",
}
