package store

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("LinkOrCreateChild", func() {

	Context("insert statement", func() {

		It("repeats the sparse index predicate in the conflict target", func() {
			// children_external_id_key only covers rows with an external id.
			// Postgres refuses to infer a partial index as arbiter unless the
			// conflict target carries the same predicate, so without it the
			// insert fails at plan time instead of racing.
			Expect(linkOrCreateChildInsert).To(ContainSubstring(
				`ON CONFLICT (external_id) WHERE external_id IS NOT NULL DO NOTHING`,
			))
		})
	})
})
