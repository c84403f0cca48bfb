package pagination

import (
	"fmt"
	"log/slog"

	"github.com/r0ks0n/pdfflow/internal/apperr"
	"github.com/r0ks0n/pdfflow/internal/interp"
	"github.com/r0ks0n/pdfflow/internal/layout"
	"github.com/r0ks0n/pdfflow/internal/logging"
	"github.com/r0ks0n/pdfflow/internal/template"
	"github.com/r0ks0n/pdfflow/internal/text"
)

// FieldKey identifies a field value inside a page job. Page 0 is the plain
// base field; continuation pages carry the flow text under Page >= 2. The
// concatenated wire name exists only at the renderer boundary, via Name.
type FieldKey struct {
	Base string
	Page int
}

// Name returns the serialized field name.
func (k FieldKey) Name() string {
	if k.Page == 0 {
		return k.Base
	}
	return fmt.Sprintf("%s_page%d", k.Base, k.Page)
}

// PageJob is one page's worth of rendering work: a layout plus the values to
// place into it. Jobs are immutable once built.
type PageJob struct {
	Layout  template.PageLayout
	FlowKey FieldKey
	Values  map[FieldKey]string
}

// FlowText returns the flow-field content of this job.
func (j PageJob) FlowText() string {
	return j.Values[j.FlowKey]
}

// InputMap flattens Values under their serialized field names.
func (j PageJob) InputMap() map[string]string {
	m := make(map[string]string, len(j.Values))
	for k, v := range j.Values {
		m[k.Name()] = v
	}
	return m
}

// DocumentPlan is the ordered render-job sequence for one document. Index 0
// uses the first-page layout, every later index the continuation layout.
type DocumentPlan []PageJob

// Planner builds document plans. Safe for concurrent use.
type Planner struct {
	Estimator *layout.Estimator
}

// NewPlanner returns a Planner using est for capacity estimation.
func NewPlanner(est *layout.Estimator) *Planner {
	return &Planner{Estimator: est}
}

// Plan lays fullText out across the two layouts and returns the ordered page
// jobs. Pass-through values are copied into the first job only; non-string
// values are serialized to JSON text there. The input layouts and values are
// never mutated.
func (p *Planner) Plan(flowField string, first, cont template.PageLayout, fullText string, values map[string]any) (DocumentPlan, error) {
	firstFrame, ok := first.FlowFrame(flowField)
	if !ok {
		return nil, apperr.NewWithDetails(apperr.ErrMissingFlowField,
			"layout is missing the designated flow field",
			fmt.Sprintf("field %q not defined in first layout", flowField), nil)
	}
	contFrame, ok := cont.FlowFrame(flowField)
	if !ok {
		return nil, apperr.NewWithDetails(apperr.ErrMissingFlowField,
			"layout is missing the designated flow field",
			fmt.Sprintf("field %q not defined in continuation layout", flowField), nil)
	}
	if v, ok := values[flowField]; ok {
		if _, isString := v.(string); !isString {
			return nil, apperr.NewWithDetails(apperr.ErrInvalidFieldType,
				"flow field value must be a string",
				fmt.Sprintf("field %q has type %T", flowField, v), nil)
		}
	}

	firstCap := p.Estimator.Estimate(fullText, firstFrame)
	contCap := p.Estimator.Estimate(fullText, contFrame)

	flowKey := FieldKey{Base: flowField}

	if text.RuneLen(fullText) <= firstCap {
		job := PageJob{
			Layout:  first,
			FlowKey: flowKey,
			Values:  passThroughValues(flowField, values),
		}
		job.Values[flowKey] = fullText
		return DocumentPlan{job}, nil
	}

	chunks := Split(fullText, firstCap, contCap)
	plan := make(DocumentPlan, 0, len(chunks))
	for i, chunk := range chunks {
		if i == 0 {
			job := PageJob{
				Layout:  first,
				FlowKey: flowKey,
				Values:  passThroughValues(flowField, values),
			}
			job.Values[flowKey] = chunk
			plan = append(plan, job)
			continue
		}
		key := FieldKey{Base: flowField, Page: i + 1}
		plan = append(plan, PageJob{
			Layout:  cont,
			FlowKey: key,
			Values:  map[FieldKey]string{key: chunk},
		})
	}

	logging.Logger().Debug("planned document",
		slog.Int("pages", len(plan)),
		slog.Int("firstCapacity", firstCap),
		slog.Int("continuationCapacity", contCap),
		slog.Int("textLen", text.RuneLen(fullText)))

	return plan, nil
}

// passThroughValues copies every non-flow value, serializing non-strings to
// JSON text.
func passThroughValues(flowField string, values map[string]any) map[FieldKey]string {
	out := make(map[FieldKey]string, len(values))
	for name, v := range values {
		if name == flowField {
			continue
		}
		out[FieldKey{Base: name}] = interp.Stringify(v)
	}
	return out
}
